package confluence

import (
	"context"
	"fmt"
	"time"

	"crypto-sentinel/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	minFactors    = 3
	cooldownHours = 24

	breakoutMargin   = 1.02
	minSpikePct      = 30.0
	activeHoursStart = 9
	activeHoursEnd   = 16
)

// MarketDataSource is the slice of the price provider the factors need.
// Each factor fetches its own window rather than reusing the detector's
// data, as an independent re-confirmation.
type MarketDataSource interface {
	MarketChart(ctx context.Context, id string, days int) (*domain.MarketSeries, error)
}

// Engine cross-validates a candidate signal against four independent
// factors and owns the per-symbol cooldown state.
type Engine struct {
	tracer    trace.Tracer
	source    MarketDataSource
	cooldowns CooldownStore
	now       func() time.Time
}

func NewEngine(tracer trace.Tracer, source MarketDataSource, cooldowns CooldownStore, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if cooldowns == nil {
		cooldowns = NewMemoryCooldownStore()
	}
	return &Engine{tracer: tracer, source: source, cooldowns: cooldowns, now: now}
}

// ValidateSignal evaluates all four factors. Only passing factors appear in
// the result list; a factor that cannot compute counts as failed rather
// than erroring the validation. valid requires at least 3 of 4.
func (e *Engine) ValidateSignal(ctx context.Context, symbol, signalType string) domain.ValidationResult {
	ctx, span := e.tracer.Start(ctx, "confluence.validate-signal")
	defer span.End()

	checks := []domain.Factor{
		e.checkPriceBreakout(ctx, symbol),
		e.checkVolumeSpike(ctx, symbol),
		e.checkTiming(),
		e.checkCooldown(ctx, symbol, signalType),
	}

	factors := make([]domain.Factor, 0, len(checks))
	for _, f := range checks {
		if f.Valid {
			factors = append(factors, f)
		}
	}

	score := len(factors)
	return domain.ValidationResult{
		Valid:           score >= minFactors,
		ConfluenceScore: score,
		Factors:         factors,
		Symbol:          symbol,
		SignalType:      signalType,
	}
}

// checkPriceBreakout passes when the high of the last 5 samples clears the
// high of the preceding 15 by more than 2%.
func (e *Engine) checkPriceBreakout(ctx context.Context, symbol string) domain.Factor {
	series, err := e.source.MarketChart(ctx, symbol, 1)
	if err != nil {
		return domain.Factor{Name: domain.FactorPriceBreakout, Reason: "price data error"}
	}

	prices := values(series.Prices)
	if len(prices) < 10 {
		return domain.Factor{Name: domain.FactorPriceBreakout, Reason: "insufficient price data"}
	}

	recentHigh := maxOf(prices[len(prices)-5:])
	lo := len(prices) - 20
	if lo < 0 {
		lo = 0
	}
	resistance := maxOf(prices[lo : len(prices)-5])

	return domain.Factor{
		Name:        domain.FactorPriceBreakout,
		Valid:       recentHigh > resistance*breakoutMargin,
		CurrentHigh: recentHigh,
		Resistance:  resistance,
	}
}

// checkVolumeSpike passes when the latest volume exceeds the mean of the
// preceding 9 samples by more than 30%.
func (e *Engine) checkVolumeSpike(ctx context.Context, symbol string) domain.Factor {
	series, err := e.source.MarketChart(ctx, symbol, 1)
	if err != nil {
		return domain.Factor{Name: domain.FactorVolumeSpike, Reason: "volume data error"}
	}

	volumes := values(series.Volumes)
	if len(volumes) < 10 {
		return domain.Factor{Name: domain.FactorVolumeSpike, Reason: "insufficient volume data"}
	}

	recent := volumes[len(volumes)-1]
	baseline := volumes[len(volumes)-10 : len(volumes)-1]
	var sum float64
	for _, v := range baseline {
		sum += v
	}
	avg := sum / float64(len(baseline))
	if avg == 0 {
		return domain.Factor{Name: domain.FactorVolumeSpike, Reason: "zero volume baseline"}
	}
	spikePct := (recent - avg) / avg * 100

	return domain.Factor{
		Name:     domain.FactorVolumeSpike,
		Valid:    spikePct > minSpikePct,
		SpikePct: spikePct,
	}
}

// checkTiming passes only during active trading hours, 9:00-16:59.
func (e *Engine) checkTiming() domain.Factor {
	hour := e.now().Hour()
	return domain.Factor{
		Name:        domain.FactorTiming,
		Valid:       hour >= activeHoursStart && hour <= activeHoursEnd,
		CurrentHour: hour,
	}
}

// checkCooldown passes on the first-ever check for the pair or once 24h
// have elapsed. Passing advances the pair's clock even when the overall
// signal is later rejected; the policy is confined to MarkChecked so it
// can be moved to emission time in one place.
func (e *Engine) checkCooldown(ctx context.Context, symbol, signalType string) domain.Factor {
	key := fmt.Sprintf("%s_%s", symbol, signalType)
	now := e.now()

	last, ok, err := e.cooldowns.Last(ctx, key)
	if err != nil {
		return domain.Factor{Name: domain.FactorCooldown, Reason: "cooldown state error"}
	}
	if !ok {
		if err := e.cooldowns.MarkChecked(ctx, key, now); err != nil {
			return domain.Factor{Name: domain.FactorCooldown, Reason: "cooldown state error"}
		}
		return domain.Factor{Name: domain.FactorCooldown, Valid: true, Status: "first_signal"}
	}

	elapsed := now.Sub(last)
	expired := elapsed >= cooldownHours*time.Hour
	if expired {
		if err := e.cooldowns.MarkChecked(ctx, key, now); err != nil {
			return domain.Factor{Name: domain.FactorCooldown, Reason: "cooldown state error"}
		}
	}

	return domain.Factor{
		Name:           domain.FactorCooldown,
		Valid:          expired,
		HoursSinceLast: elapsed.Hours(),
	}
}

func values(points []domain.SeriesPoint) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = points[i].Value
	}
	return out
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
