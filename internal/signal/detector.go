package signal

import (
	"context"
	"fmt"
	"math"
	"strings"

	"crypto-sentinel/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const volumeLookbackHours = 24

// MarketDataSource is the slice of the price provider the detector needs.
type MarketDataSource interface {
	CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error)
	MarketChart(ctx context.Context, id string, days int) (*domain.MarketSeries, error)
}

// Detector turns a raw price/volume series into a breakout determination.
// Thresholds are fixed at construction.
type Detector struct {
	tracer       trace.Tracer
	source       MarketDataSource
	supportFloor float64
	breakoutZone float64
	minSpikePct  float64
}

func NewDetector(tracer trace.Tracer, source MarketDataSource, supportFloor, breakoutZone, minSpikePct float64) *Detector {
	return &Detector{
		tracer:       tracer,
		source:       source,
		supportFloor: supportFloor,
		breakoutZone: breakoutZone,
		minSpikePct:  minSpikePct,
	}
}

// DetectBreakout returns a candidate signal, or nil when the asset shows no
// breakout or the upstream data is too thin to judge. Only transport-level
// provider faults come back as errors.
func (d *Detector) DetectBreakout(ctx context.Context, asset string) (*domain.Signal, error) {
	ctx, span := d.tracer.Start(ctx, "detector.detect-breakout")
	defer span.End()

	prices, err := d.source.CurrentPrices(ctx, []string{asset})
	if err != nil {
		return nil, fmt.Errorf("breakout detection failed for %s: %w", asset, err)
	}
	currentPrice, ok := prices[strings.ToLower(asset)]
	if !ok || currentPrice <= 0 {
		return nil, nil
	}

	series, err := d.source.MarketChart(ctx, asset, 1)
	if err != nil {
		return nil, fmt.Errorf("breakout detection failed for %s: %w", asset, err)
	}

	volumes := recentValues(series.Volumes, volumeLookbackHours)
	if len(volumes) < 2 {
		return nil, nil
	}

	spikePct := volumeSpikePct(volumes)
	if currentPrice <= d.breakoutZone || spikePct <= d.minSpikePct {
		return nil, nil
	}

	return &domain.Signal{
		Symbol:           asset,
		WhatHappened:     fmt.Sprintf("%s broke resistance at $%g", strings.ToUpper(asset), d.breakoutZone),
		WhyItMatters:     fmt.Sprintf("Volume spike +%.0f%% signals strong momentum", spikePct),
		SuggestedPosture: domain.PostureAccumulate,
		CurrentPrice:     currentPrice,
		VolumeSpikePct:   spikePct,
	}, nil
}

// volumeSpikePct compares the latest sample against the mean of the rest.
// A zero baseline yields +Inf, which always clears any finite threshold.
func volumeSpikePct(volumes []float64) float64 {
	baseline := volumes[:len(volumes)-1]
	var sum float64
	for _, v := range baseline {
		sum += v
	}
	mean := sum / float64(len(baseline))
	latest := volumes[len(volumes)-1]

	if mean == 0 {
		if latest > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (latest - mean) / mean * 100
}

func recentValues(points []domain.SeriesPoint, n int) []float64 {
	if len(points) > n {
		points = points[len(points)-n:]
	}
	values := make([]float64, len(points))
	for i := range points {
		values[i] = points[i].Value
	}
	return values
}
