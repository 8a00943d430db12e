package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-sentinel/internal/domain"
	"crypto-sentinel/internal/service"

	tele "gopkg.in/telebot.v3"
)

type ScanRunner interface {
	RunDailyScan(ctx context.Context, persona string) (service.ScanResult, error)
	EvaluatePrevious(ctx context.Context) (domain.EvaluationSummary, error)
}

type StatsSource interface {
	PerformanceStats(ctx context.Context) (domain.PerformanceStats, error)
}

type Reporter interface {
	GenerateReport(ctx context.Context) (string, error)
}

type PersonaDirectory interface {
	Known(persona string) bool
}

// New connects the bot. Returns nil when no token is configured, which
// disables both commands and alert delivery.
func New(token string) *tele.Bot {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	return b
}

// StartTelegramBot wires the command surface and begins long polling in
// the background. Registration is separate from New so the bot can also
// serve as a delivery channel for the scan pipeline.
func StartTelegramBot(b *tele.Bot, defaultPersona string, scans ScanRunner, stats StatsSource, reports Reporter, personas PersonaDirectory) {
	if b == nil {
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/scan", func(c tele.Context) error {
		if scans == nil {
			return c.Send("Scan service unavailable")
		}

		persona := defaultPersona
		if args := c.Args(); len(args) > 0 {
			persona = strings.TrimSpace(args[0])
		}
		if personas != nil && !personas.Known(persona) {
			return c.Send(fmt.Sprintf("Unknown persona: %s", persona))
		}

		res, err := scans.RunDailyScan(context.Background(), persona)
		if err != nil {
			return c.Send(fmt.Sprintf("Scan failed: %v", err))
		}
		return c.Send(res.Output)
	})

	b.Handle("/performance", func(c tele.Context) error {
		if stats == nil {
			return c.Send("Performance tracking unavailable")
		}

		perf, err := stats.PerformanceStats(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching performance: %v", err))
		}
		if perf.TotalSignals == 0 {
			return c.Send("No evaluated signals yet.")
		}
		return c.Send(performanceReply(perf))
	})

	b.Handle("/report", func(c tele.Context) error {
		if reports == nil {
			return c.Send("Reporting unavailable")
		}

		report, err := reports.GenerateReport(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error generating report: %v", err))
		}
		return c.Send(report)
	})

	log.Println("Telegram bot started")
	go b.Start()
}

// performanceReply renders the /performance summary. Accuracy is stored as
// a 0..1 fraction.
func performanceReply(perf domain.PerformanceStats) string {
	return fmt.Sprintf(
		"Evaluated signals: %d\nAccuracy: %.1f%%\nAvg return: %+.2f%%",
		perf.TotalSignals, perf.Accuracy*100, perf.AvgReturn,
	)
}
