package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"crypto-sentinel/internal/domain"
	"crypto-sentinel/internal/store"

	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func fileStore(t *testing.T) *store.FileStore {
	t.Helper()
	return store.NewFileStore(filepath.Join(t.TempDir(), "perf.json"))
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
}

func TestLogSignalStoresActiveRecord(t *testing.T) {
	s := fileStore(t)
	tr := New(testTracer(), s, &stubPrices{}, fixedNow)
	ctx := context.Background()

	id, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty id")
	}
	if id != "bitcoin_20260310_0915" {
		t.Fatalf("unexpected id: %s", id)
	}

	active, err := s.ScanActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 {
		t.Fatalf("expected exactly one active record, got %d", len(active))
	}
	rec := active[0]
	if rec.EntryPrice != 50000 || rec.Persona != "novice_plus" || rec.Status != domain.StatusActive {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestLogSignalRejectsIncompleteSignals(t *testing.T) {
	tr := New(testTracer(), fileStore(t), &stubPrices{}, fixedNow)
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{CurrentPrice: 50000}, "novice_plus"); !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("expected ErrInvalidSignal for missing symbol, got %v", err)
	}
	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin"}, "novice_plus"); !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("expected ErrInvalidSignal for missing price, got %v", err)
	}
}

func TestLogSignalSuffixesMinuteCollisions(t *testing.T) {
	tr := New(testTracer(), fileStore(t), &stubPrices{}, fixedNow)
	ctx := context.Background()
	sig := domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}

	first, err := tr.LogSignal(ctx, sig, "novice_plus")
	if err != nil {
		t.Fatal(err)
	}
	second, err := tr.LogSignal(ctx, sig, "novice_plus")
	if err != nil {
		t.Fatal(err)
	}
	third, err := tr.LogSignal(ctx, sig, "novice_plus")
	if err != nil {
		t.Fatal(err)
	}

	if first != "bitcoin_20260310_0915" || second != first+"_2" || third != first+"_3" {
		t.Fatalf("unexpected ids: %s %s %s", first, second, third)
	}
}

func TestEvaluateSignalsFlipsOnlyDueRecords(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := New(testTracer(), s, &stubPrices{prices: map[string]float64{"bitcoin": 52000, "ethereum": 3000}}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(12 * time.Hour)
	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "ethereum", CurrentPrice: 3000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(12 * time.Hour) // bitcoin is now 24h old, ethereum 12h
	summary, err := tr.EvaluateSignals(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Evaluated != 1 {
		t.Fatalf("expected 1 evaluated, got %d", summary.Evaluated)
	}
	if summary.Winners != 1 || summary.Accuracy != 1.0 {
		t.Fatalf("+4%% return should win: %+v", summary)
	}

	active, _ := s.ScanActive(ctx)
	if len(active) != 1 || active[0].Signal.Symbol != "ethereum" {
		t.Fatalf("young record must stay active: %+v", active)
	}
}

func TestEvaluateSignalsIsIdempotent(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := New(testTracer(), s, &stubPrices{prices: map[string]float64{"bitcoin": 52000}}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(25 * time.Hour)
	first, err := tr.EvaluateSignals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Evaluated != 1 {
		t.Fatalf("expected 1 evaluated on first pass, got %d", first.Evaluated)
	}

	second, err := tr.EvaluateSignals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Evaluated != 0 {
		t.Fatalf("second pass must evaluate nothing, got %d", second.Evaluated)
	}

	done, _ := s.ScanEvaluated(ctx)
	if len(done) != 1 || done[0].Outcome == nil {
		t.Fatalf("expected one evaluated record with outcome: %+v", done)
	}
}

func TestEvaluateSignalsRealOutcomeReturnPct(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := New(testTracer(), s, &stubPrices{prices: map[string]float64{"bitcoin": 51000}}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(25 * time.Hour)
	summary, err := tr.EvaluateSignals(ctx)
	if err != nil {
		t.Fatal(err)
	}

	done, _ := s.ScanEvaluated(ctx)
	if len(done) != 1 {
		t.Fatalf("expected one evaluated record, got %d", len(done))
	}
	out := done[0].Outcome
	if out.ReturnPct != 2.0 {
		t.Fatalf("expected +2.0%% return, got %f", out.ReturnPct)
	}
	// profitable requires strictly more than 2%.
	if out.Profitable || summary.Winners != 0 {
		t.Fatalf("+2.0%% exactly must not count as profitable: %+v", out)
	}
	if out.Simulated {
		t.Fatal("real outcome must not be labeled simulated")
	}
}

func TestEvaluateSignalsPriceFetchFailureStillEvaluates(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := New(testTracer(), s, &stubPrices{err: errors.New("unreachable")}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(25 * time.Hour)
	summary, err := tr.EvaluateSignals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Evaluated != 1 || summary.Winners != 0 {
		t.Fatalf("fetch failure should record a non-profitable outcome: %+v", summary)
	}

	done, _ := s.ScanEvaluated(ctx)
	if done[0].Outcome.Error == "" {
		t.Fatal("expected an error note on the outcome")
	}
}

func TestSimulatedOutcomesAreLabeled(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := NewSimulated(testTracer(), s, func() time.Time { return now }, 1)
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(25 * time.Hour)
	if _, err := tr.EvaluateSignals(ctx); err != nil {
		t.Fatal(err)
	}

	done, _ := s.ScanEvaluated(ctx)
	out := done[0].Outcome
	if !out.Simulated {
		t.Fatal("simulated outcome must be labeled")
	}
	if out.ReturnPct < -5 || out.ReturnPct > 10 {
		t.Fatalf("simulated return out of range: %f", out.ReturnPct)
	}
}

func TestPerformanceStatsEmptyStore(t *testing.T) {
	tr := New(testTracer(), fileStore(t), &stubPrices{}, fixedNow)

	stats, err := tr.PerformanceStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalSignals != 0 || stats.Accuracy != 0 || stats.AvgReturn != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func TestPerformanceStatsAggregatesEvaluatedOnly(t *testing.T) {
	s := fileStore(t)
	now := fixedNow()
	tr := New(testTracer(), s, &stubPrices{prices: map[string]float64{"bitcoin": 55000, "ethereum": 2850}}, func() time.Time { return now })
	ctx := context.Background()

	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 50000}, "novice_plus"); err != nil {
		t.Fatal(err) // +10%
	}
	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "ethereum", CurrentPrice: 3000}, "novice_plus"); err != nil {
		t.Fatal(err) // -5%
	}

	now = now.Add(25 * time.Hour)
	if _, err := tr.EvaluateSignals(ctx); err != nil {
		t.Fatal(err)
	}

	// A fresh active record must not leak into the aggregates.
	if _, err := tr.LogSignal(ctx, domain.Signal{Symbol: "bitcoin", CurrentPrice: 55000}, "novice_plus"); err != nil {
		t.Fatal(err)
	}

	stats, err := tr.PerformanceStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSignals != 2 {
		t.Fatalf("expected 2 evaluated signals, got %d", stats.TotalSignals)
	}
	if stats.Accuracy != 0.5 {
		t.Fatalf("expected accuracy 0.5, got %f", stats.Accuracy)
	}
	if stats.AvgReturn != 2.5 {
		t.Fatalf("expected avg return 2.5, got %f", stats.AvgReturn)
	}
}

type stubPrices struct {
	prices map[string]float64
	err    error
}

func (s *stubPrices) CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prices, nil
}
