package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"crypto-sentinel/internal/bot"
	"crypto-sentinel/internal/cache"
	"crypto-sentinel/internal/config"
	"crypto-sentinel/internal/confluence"
	"crypto-sentinel/internal/db"
	"crypto-sentinel/internal/handler"
	"crypto-sentinel/internal/job"
	"crypto-sentinel/internal/metrics"
	"crypto-sentinel/internal/notify"
	"crypto-sentinel/internal/persona"
	"crypto-sentinel/internal/provider"
	"crypto-sentinel/internal/report"
	"crypto-sentinel/internal/repository"
	"crypto-sentinel/internal/service"
	signalengine "crypto-sentinel/internal/signal"
	"crypto-sentinel/internal/store"
	"crypto-sentinel/internal/tracker"
	"crypto-sentinel/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	loadPresetsFunc     = persona.LoadPresets
	newTrackerStoreFunc = func(cfg *config.Config, tracer trace.Tracer, ctx context.Context) (tracker.Store, error) {
		if db.Pool != nil {
			repo := repository.NewPerformanceRepository(db.Pool, tracer)
			if err := repo.RunMigrations(ctx); err != nil {
				return nil, err
			}
			return repo, nil
		}
		if dir := filepath.Dir(cfg.PerformanceFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return store.NewFileStore(cfg.PerformanceFile), nil
	}
	newCooldownStoreFunc = func() confluence.CooldownStore {
		if cache.Client != nil {
			return confluence.NewRedisCooldownStore(cache.Client)
		}
		return confluence.NewMemoryCooldownStore()
	}
	startSchedulerFunc     = func(s *job.ScanScheduler, ctx context.Context) { go s.Start(ctx) }
	newBotFunc             = bot.New
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	presets, err := loadPresetsFunc(cfg.PersonaPresetsPath)
	if err != nil {
		log.Fatalf("failed to load persona presets: %v", err)
	}
	personas := persona.NewProcessor(presets)
	if !personas.Known(cfg.DefaultPersona) {
		log.Fatalf("default persona %q not in presets", cfg.DefaultPersona)
	}

	trackerStore, err := newTrackerStoreFunc(cfg, tracer, ctx)
	if err != nil {
		log.Fatalf("failed to set up performance store: %v", err)
	}

	cgProvider := provider.NewCoinGeckoProvider(tracer)
	if cfg.CoinGeckoBaseURL != "" {
		cgProvider = provider.NewCoinGeckoProviderWithBaseURL(tracer, cfg.CoinGeckoBaseURL)
	}

	detector := signalengine.NewDetector(tracer, cgProvider, cfg.SupportFloor, cfg.BreakoutZone, cfg.VolumeSpikePct)
	engine := confluence.NewEngine(tracer, cgProvider, newCooldownStoreFunc(), nil)

	var trk *tracker.Tracker
	if cfg.SimulateOutcomes {
		trk = tracker.NewSimulated(tracer, trackerStore, nil, time.Now().UnixNano())
	} else {
		trk = tracker.New(tracer, trackerStore, cgProvider, nil)
	}

	recorder := metrics.NewRecorder(cache.Client, nil)
	dashboard := report.NewDashboard(trk, nil)

	tgBot := newBotFunc(cfg.TelegramBotToken)

	var notifier notify.Notifier
	if router := buildNotifier(cfg, tgBot); router != nil {
		notifier = router
	}

	scanService := service.NewScanService(tracer, detector, engine, trk, personas, notifier, recorder, cfg.Assets)
	startTelegramBotFunc(tgBot, cfg.DefaultPersona, scanService, trk, dashboard, personas)

	scheduler := job.NewScanScheduler(scanService, cfg.DefaultPersona, cfg.ScanHour, cfg.ScanMinute, cfg.ScanOnStart)
	startSchedulerFunc(scheduler, ctx)

	h := handler.New(tracer, scanService, trk, dashboard, recorder, personas, cfg.DefaultPersona)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("crypto-sentinel"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    httpAddrFromEnv(),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// buildNotifier assembles the delivery fan-out from whatever channels are
// configured. Returns nil when there is nothing to deliver to.
func buildNotifier(cfg *config.Config, tgBot *tele.Bot) *notify.Router {
	var notifiers []notify.Notifier
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL))
	}
	if tgBot != nil && len(cfg.TelegramChatIDs) > 0 {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgBot, cfg.TelegramChatIDs))
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notify.NewRouter(notifiers...)
}

func httpAddrFromEnv() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
