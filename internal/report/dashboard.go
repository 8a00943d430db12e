package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crypto-sentinel/internal/domain"
)

const (
	minAccuracyTarget = 0.65
	minReturnTarget   = 8.0
)

// StatsSource exposes the aggregates the dashboard renders.
type StatsSource interface {
	PerformanceStats(ctx context.Context) (domain.PerformanceStats, error)
}

// Dashboard renders the plain-text performance validation report.
type Dashboard struct {
	stats StatsSource
	now   func() time.Time
}

func NewDashboard(stats StatsSource, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{stats: stats, now: now}
}

// GenerateReport summarizes signal performance against the accuracy and
// return targets.
func (d *Dashboard) GenerateReport(ctx context.Context) (string, error) {
	stats, err := d.stats.PerformanceStats(ctx)
	if err != nil {
		return "", fmt.Errorf("load performance stats: %w", err)
	}

	quality := "DEVELOPING"
	if stats.Accuracy >= minAccuracyTarget && stats.AvgReturn >= minReturnTarget {
		quality = "HIGH"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== CRYPTO SENTINEL - PERFORMANCE VALIDATION ===\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", d.now().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "SIGNAL PERFORMANCE:\n")
	fmt.Fprintf(&b, "• Total Signals Evaluated: %d\n", stats.TotalSignals)
	fmt.Fprintf(&b, "• Accuracy Rate: %.1f%%\n", stats.Accuracy*100)
	fmt.Fprintf(&b, "• Average Return: %.1f%%\n\n", stats.AvgReturn)
	fmt.Fprintf(&b, "VALIDATION STATUS:\n")
	fmt.Fprintf(&b, "• Minimum Accuracy Target: 65%% %s\n", passFail(stats.Accuracy >= minAccuracyTarget))
	fmt.Fprintf(&b, "• Minimum Avg Return Target: 8%% %s\n", passFail(stats.AvgReturn >= minReturnTarget))
	fmt.Fprintf(&b, "• Signal Quality: %s\n\n", quality)
	fmt.Fprintf(&b, "CREDIBILITY SCORE: %d/100", CredibilityScore(stats))

	return b.String(), nil
}

// ExportValidationData packages the aggregates with the evaluation
// methodology for external audit.
func (d *Dashboard) ExportValidationData(ctx context.Context) (map[string]any, error) {
	stats, err := d.stats.PerformanceStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load performance stats: %w", err)
	}

	return map[string]any{
		"validation_timestamp": d.now().UTC(),
		"performance_stats":    stats,
		"methodology": map[string]string{
			"evaluation_period": "24 hours",
			"profit_threshold":  "2%",
			"data_source":       "CoinGecko API",
		},
		"competitive_position": map[string]float64{
			"accuracy_vs_random": stats.Accuracy - 0.5,
			"return_vs_market":   stats.AvgReturn - minReturnTarget,
		},
	}, nil
}

// CredibilityScore maps aggregates onto a 0-100 scale: up to 40 points
// each for accuracy and return, 20 for sample size.
func CredibilityScore(stats domain.PerformanceStats) int {
	score := 0

	switch {
	case stats.Accuracy >= minAccuracyTarget:
		score += 40
	case stats.Accuracy >= 0.55:
		score += 20
	}

	switch {
	case stats.AvgReturn >= minReturnTarget:
		score += 40
	case stats.AvgReturn >= 4:
		score += 20
	}

	switch {
	case stats.TotalSignals >= 50:
		score += 20
	case stats.TotalSignals >= 20:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
