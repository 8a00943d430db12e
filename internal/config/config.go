package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	TelegramChatIDs  []int64
	DatabaseURL      string
	RedisURL         string
	WebhookURL       string

	PersonaPresetsPath string
	DefaultPersona     string

	Assets         []string
	SupportFloor   float64
	BreakoutZone   float64
	VolumeSpikePct float64

	ScanHour    int
	ScanMinute  int
	ScanOnStart bool

	SimulateOutcomes bool
	PerformanceFile  string
	CoinGeckoBaseURL string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		WebhookURL:       strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram delivery disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, falling back to file-backed performance store")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, cooldowns and scan metrics will be in-memory only")
	}

	for _, raw := range strings.Split(os.Getenv("TELEGRAM_CHAT_IDS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("Warning: skipping malformed TELEGRAM_CHAT_IDS entry %q", raw)
			continue
		}
		cfg.TelegramChatIDs = append(cfg.TelegramChatIDs, id)
	}

	cfg.PersonaPresetsPath = strings.TrimSpace(os.Getenv("PERSONA_PRESETS_PATH"))
	if cfg.PersonaPresetsPath == "" {
		cfg.PersonaPresetsPath = "persona_presets.yaml"
	}

	cfg.DefaultPersona = strings.TrimSpace(os.Getenv("DEFAULT_PERSONA"))
	if cfg.DefaultPersona == "" {
		cfg.DefaultPersona = "novice_plus"
	}

	cfg.Assets = []string{"bitcoin", "ethereum", "ripple"}
	if v := strings.TrimSpace(os.Getenv("ASSETS")); v != "" {
		cfg.Assets = cfg.Assets[:0]
		for _, a := range strings.Split(v, ",") {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				cfg.Assets = append(cfg.Assets, a)
			}
		}
	}

	cfg.SupportFloor = floatEnv("SUPPORT_FLOOR", 50000)
	cfg.BreakoutZone = floatEnv("BREAKOUT_ZONE", 55000)
	cfg.VolumeSpikePct = floatEnv("VOLUME_SPIKE_PCT", 30)

	cfg.ScanHour = intEnv("SCAN_HOUR", 9, 0, 23)
	cfg.ScanMinute = intEnv("SCAN_MINUTE", 15, 0, 59)
	cfg.ScanOnStart = boolEnv("SCAN_ON_START")

	cfg.SimulateOutcomes = boolEnv("SIMULATE_OUTCOMES")
	if cfg.SimulateOutcomes {
		log.Println("Warning: SIMULATE_OUTCOMES enabled, outcomes will be labeled simulated")
	}

	cfg.PerformanceFile = strings.TrimSpace(os.Getenv("PERFORMANCE_FILE"))
	if cfg.PerformanceFile == "" {
		cfg.PerformanceFile = "data/signal_performance.json"
	}

	cfg.CoinGeckoBaseURL = strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL"))

	return cfg
}

func floatEnv(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
		log.Printf("Warning: invalid %s=%q, using %g", key, v, fallback)
	}
	return fallback
}

func intEnv(key string, fallback, min, max int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min && n <= max {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func boolEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}
