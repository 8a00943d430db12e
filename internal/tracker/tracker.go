package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"crypto-sentinel/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	evaluationHorizon = 24 * time.Hour
	profitThreshold   = 2.0
	idTimeLayout      = "20060102_1504"
)

// ErrInvalidSignal marks a signal missing the fields the tracker requires.
var ErrInvalidSignal = errors.New("invalid signal")

// Store is the narrow persistence contract the tracker writes through.
// Implementations: store.FileStore, repository.PerformanceRepository.
type Store interface {
	Get(ctx context.Context, id string) (*domain.PerformanceRecord, error)
	Put(ctx context.Context, rec *domain.PerformanceRecord) error
	ScanActive(ctx context.Context) ([]*domain.PerformanceRecord, error)
	ScanEvaluated(ctx context.Context) ([]*domain.PerformanceRecord, error)
}

// PriceSource re-fetches the current price when a record comes due.
type PriceSource interface {
	CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// Tracker is the sole writer of performance records. Outcomes use a real
// price re-check unless simulation was explicitly enabled; simulated
// outcomes are labeled as such on the record.
type Tracker struct {
	tracer   trace.Tracer
	store    Store
	prices   PriceSource
	now      func() time.Time
	simulate bool
	rng      *rand.Rand
}

func New(tracer trace.Tracer, store Store, prices PriceSource, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{tracer: tracer, store: store, prices: prices, now: now}
}

// NewSimulated returns a tracker whose outcomes are drawn from a uniform
// -5..10% distribution instead of a price re-check. For validation runs
// only; every outcome it writes carries simulated=true.
func NewSimulated(tracer trace.Tracer, store Store, now func() time.Time, seed int64) *Tracker {
	t := New(tracer, store, nil, now)
	t.simulate = true
	t.rng = rand.New(rand.NewSource(seed))
	return t
}

// LogSignal persists a new active record and returns its id. Minute-level
// id collisions for the same symbol get a numeric suffix.
func (t *Tracker) LogSignal(ctx context.Context, sig domain.Signal, persona string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "tracker.log-signal")
	defer span.End()

	symbol := strings.TrimSpace(sig.Symbol)
	if symbol == "" {
		return "", fmt.Errorf("%w: missing symbol", ErrInvalidSignal)
	}
	if sig.CurrentPrice <= 0 {
		return "", fmt.Errorf("%w: missing current price", ErrInvalidSignal)
	}

	now := t.now()
	id, err := t.uniqueID(ctx, symbol, now)
	if err != nil {
		return "", err
	}

	rec := &domain.PerformanceRecord{
		SignalID:   id,
		Timestamp:  now.UTC(),
		Signal:     sig,
		Persona:    persona,
		EntryPrice: sig.CurrentPrice,
		Status:     domain.StatusActive,
	}
	if err := t.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("log signal %s: %w", id, err)
	}
	return id, nil
}

func (t *Tracker) uniqueID(ctx context.Context, symbol string, now time.Time) (string, error) {
	base := fmt.Sprintf("%s_%s", symbol, now.Format(idTimeLayout))
	id := base
	for n := 2; ; n++ {
		existing, err := t.store.Get(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check id %s: %w", id, err)
		}
		if existing == nil {
			return id, nil
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

// EvaluateSignals flips every active record older than 24h to evaluated,
// attaching its outcome exactly once. Records with a zero timestamp are
// left alone rather than failing the pass.
func (t *Tracker) EvaluateSignals(ctx context.Context) (domain.EvaluationSummary, error) {
	ctx, span := t.tracer.Start(ctx, "tracker.evaluate-signals")
	defer span.End()

	active, err := t.store.ScanActive(ctx)
	if err != nil {
		return domain.EvaluationSummary{}, fmt.Errorf("scan active signals: %w", err)
	}

	now := t.now()
	summary := domain.EvaluationSummary{}
	for _, rec := range active {
		if rec.Timestamp.IsZero() || now.Sub(rec.Timestamp) < evaluationHorizon {
			continue
		}

		outcome := t.evaluateOutcome(ctx, rec)
		rec.Status = domain.StatusEvaluated
		rec.Outcome = &outcome
		if err := t.store.Put(ctx, rec); err != nil {
			return summary, fmt.Errorf("persist outcome for %s: %w", rec.SignalID, err)
		}

		summary.Evaluated++
		if outcome.Profitable {
			summary.Winners++
		}
	}

	if summary.Evaluated > 0 {
		summary.Accuracy = float64(summary.Winners) / float64(summary.Evaluated)
	}
	return summary, nil
}

// PerformanceStats aggregates evaluated records only.
func (t *Tracker) PerformanceStats(ctx context.Context) (domain.PerformanceStats, error) {
	ctx, span := t.tracer.Start(ctx, "tracker.performance-stats")
	defer span.End()

	evaluated, err := t.store.ScanEvaluated(ctx)
	if err != nil {
		return domain.PerformanceStats{}, fmt.Errorf("scan evaluated signals: %w", err)
	}
	if len(evaluated) == 0 {
		return domain.PerformanceStats{}, nil
	}

	winners := 0
	var returnSum float64
	for _, rec := range evaluated {
		if rec.Outcome == nil {
			continue
		}
		if rec.Outcome.Profitable {
			winners++
		}
		returnSum += rec.Outcome.ReturnPct
	}

	return domain.PerformanceStats{
		TotalSignals: len(evaluated),
		Accuracy:     float64(winners) / float64(len(evaluated)),
		AvgReturn:    returnSum / float64(len(evaluated)),
	}, nil
}

func (t *Tracker) evaluateOutcome(ctx context.Context, rec *domain.PerformanceRecord) domain.Outcome {
	evaluatedAt := t.now().UTC()
	if rec.EntryPrice <= 0 {
		return domain.Outcome{Profitable: false, ReturnPct: 0, EvaluatedAt: evaluatedAt, Error: "no entry price"}
	}

	if t.simulate {
		returnPct := t.rng.Float64()*15 - 5
		return domain.Outcome{
			ReturnPct:   returnPct,
			Profitable:  returnPct > profitThreshold,
			EvaluatedAt: evaluatedAt,
			Simulated:   true,
		}
	}

	symbol := strings.ToLower(rec.Signal.Symbol)
	prices, err := t.prices.CurrentPrices(ctx, []string{symbol})
	if err != nil {
		log.Printf("outcome price fetch failed for %s: %v", rec.SignalID, err)
		return domain.Outcome{Profitable: false, ReturnPct: 0, EvaluatedAt: evaluatedAt, Error: err.Error()}
	}
	current, ok := prices[symbol]
	if !ok || current <= 0 {
		return domain.Outcome{Profitable: false, ReturnPct: 0, EvaluatedAt: evaluatedAt, Error: "no current price"}
	}

	returnPct := (current - rec.EntryPrice) / rec.EntryPrice * 100
	return domain.Outcome{
		ReturnPct:   returnPct,
		Profitable:  returnPct > profitThreshold,
		EvaluatedAt: evaluatedAt,
	}
}
