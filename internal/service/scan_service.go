package service

import (
	"context"
	"log"

	"crypto-sentinel/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type breakoutDetector interface {
	DetectBreakout(ctx context.Context, asset string) (*domain.Signal, error)
}

type signalValidator interface {
	ValidateSignal(ctx context.Context, symbol, signalType string) domain.ValidationResult
}

type signalTracker interface {
	LogSignal(ctx context.Context, sig domain.Signal, persona string) (string, error)
	EvaluateSignals(ctx context.Context) (domain.EvaluationSummary, error)
}

type personaRenderer interface {
	FilterSignals(signals []domain.Signal, persona string) []domain.Signal
	FormatOutput(signals []domain.Signal, persona string) string
}

type deliverer interface {
	Deliver(ctx context.Context, sig domain.Signal, persona string) error
}

type scanRecorder interface {
	RecordScan(ctx context.Context, persona string, signalsTriggered int) error
}

// ScanResult is what one full pipeline run produced for a persona.
type ScanResult struct {
	Persona   string          `json:"persona"`
	Signals   []domain.Signal `json:"signals"`
	SignalIDs []string        `json:"signal_ids"`
	Output    string          `json:"output"`
}

// ScanService runs the detect, validate, track, render pipeline over the
// configured asset list. A failure on one asset never aborts the rest of
// the scan.
type ScanService struct {
	tracer    trace.Tracer
	detector  breakoutDetector
	validator signalValidator
	tracker   signalTracker
	personas  personaRenderer
	notifier  deliverer
	metrics   scanRecorder
	assets    []string
}

func NewScanService(
	tracer trace.Tracer,
	detector breakoutDetector,
	validator signalValidator,
	tracker signalTracker,
	personas personaRenderer,
	notifier deliverer,
	metrics scanRecorder,
	assets []string,
) *ScanService {
	return &ScanService{
		tracer:    tracer,
		detector:  detector,
		validator: validator,
		tracker:   tracker,
		personas:  personas,
		notifier:  notifier,
		metrics:   metrics,
		assets:    assets,
	}
}

// RunDailyScan scans every configured asset, keeps the signals that survive
// confluence validation, logs them for performance tracking, and renders
// the persona-shaped briefing.
func (s *ScanService) RunDailyScan(ctx context.Context, persona string) (ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "scan.run-daily-scan")
	defer span.End()

	validated := make([]domain.Signal, 0, len(s.assets))
	ids := make([]string, 0, len(s.assets))

	for _, asset := range s.assets {
		sig, err := s.detector.DetectBreakout(ctx, asset)
		if err != nil {
			log.Printf("scan: detection failed for %s: %v", asset, err)
			continue
		}
		if sig == nil {
			continue
		}

		res := s.validator.ValidateSignal(ctx, asset, domain.SignalTypeBreakout)
		if !res.Valid {
			log.Printf("scan: %s signal rejected, confluence %d/4", asset, res.ConfluenceScore)
			continue
		}

		enriched := sig.Enriched(asset, res.ConfluenceScore)

		id, err := s.tracker.LogSignal(ctx, enriched, persona)
		if err != nil {
			log.Printf("scan: failed to log %s signal: %v", asset, err)
		} else {
			ids = append(ids, id)
		}

		if s.notifier != nil {
			if err := s.notifier.Deliver(ctx, enriched, persona); err != nil {
				log.Printf("scan: notify failed for %s: %v", asset, err)
			}
		}

		validated = append(validated, enriched)
	}

	if s.metrics != nil {
		if err := s.metrics.RecordScan(ctx, persona, len(validated)); err != nil {
			log.Printf("scan: metrics update failed: %v", err)
		}
	}

	filtered := s.personas.FilterSignals(validated, persona)
	return ScanResult{
		Persona:   persona,
		Signals:   filtered,
		SignalIDs: ids,
		Output:    s.personas.FormatOutput(filtered, persona),
	}, nil
}

// EvaluatePrevious settles every tracked signal old enough to judge.
func (s *ScanService) EvaluatePrevious(ctx context.Context) (domain.EvaluationSummary, error) {
	ctx, span := s.tracer.Start(ctx, "scan.evaluate-previous")
	defer span.End()

	return s.tracker.EvaluateSignals(ctx)
}
