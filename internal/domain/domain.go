package domain

import (
	"encoding/json"
	"math"
	"time"
)

// SignalTypeBreakout is the only signal type the detector currently emits.
const SignalTypeBreakout = "breakout"

type Posture string

const (
	PostureAccumulate Posture = "accumulate"
	PostureHold       Posture = "hold"
	PostureReduce     Posture = "reduce"
)

// Signal is a candidate breakout event. ConfluenceScore is nil until the
// confluence engine has accepted the signal.
type Signal struct {
	Symbol           string  `json:"symbol"`
	WhatHappened     string  `json:"what_happened"`
	WhyItMatters     string  `json:"why_it_matters"`
	SuggestedPosture Posture `json:"suggested_posture"`
	CurrentPrice     float64 `json:"current_price"`
	VolumeSpikePct   float64 `json:"volume_spike"`
	ConfluenceScore  *int    `json:"confluence_score,omitempty"`
}

// MarshalJSON clamps a +Inf spike (zero volume baseline) to MaxFloat64,
// since encoding/json rejects non-finite values.
func (s Signal) MarshalJSON() ([]byte, error) {
	type alias Signal
	a := alias(s)
	if math.IsInf(a.VolumeSpikePct, 1) {
		a.VolumeSpikePct = math.MaxFloat64
	}
	return json.Marshal(a)
}

// Enriched returns a copy of the signal carrying the symbol it was scanned
// under and the confluence score that validated it.
func (s Signal) Enriched(symbol string, score int) Signal {
	out := s
	out.Symbol = symbol
	out.ConfluenceScore = &score
	return out
}

const (
	FactorPriceBreakout = "price_breakout"
	FactorVolumeSpike   = "volume_spike"
	FactorTiming        = "timing"
	FactorCooldown      = "cooldown"
)

// Factor is the outcome of one independent corroboration check.
// Diagnostic fields are populated per factor kind.
type Factor struct {
	Name           string  `json:"factor"`
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
	CurrentHigh    float64 `json:"current_high,omitempty"`
	Resistance     float64 `json:"resistance,omitempty"`
	SpikePct       float64 `json:"spike_percentage,omitempty"`
	CurrentHour    int     `json:"current_hour,omitempty"`
	HoursSinceLast float64 `json:"hours_since_last,omitempty"`
	Status         string  `json:"status,omitempty"`
}

// ValidationResult is consumed synchronously by the orchestrator and never
// persisted. Factors holds only the checks that passed.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	ConfluenceScore int      `json:"confluence_score"`
	Factors         []Factor `json:"factors"`
	Symbol          string   `json:"symbol"`
	SignalType      string   `json:"signal_type"`
}

type EntryRadar string

const (
	RadarHyper    EntryRadar = "hyper"
	RadarActive   EntryRadar = "active"
	RadarFiltered EntryRadar = "filtered"
)

type Tone string

const (
	ToneTerse       Tone = "terse"
	ToneExplanatory Tone = "explanatory"
)

// PersonaConfig is read-only reference data loaded once at startup.
type PersonaConfig struct {
	MaxInsightsPerDay int        `yaml:"max_insights_per_day" json:"max_insights_per_day"`
	EntryRadar        EntryRadar `yaml:"entry_radar" json:"entry_radar"`
	Tone              Tone       `yaml:"tone" json:"tone"`
}

type RecordStatus string

const (
	StatusActive    RecordStatus = "active"
	StatusEvaluated RecordStatus = "evaluated"
)

// Outcome is attached exactly once when a record is evaluated. Simulated
// outcomes are always labeled so they cannot pass for real returns.
type Outcome struct {
	ReturnPct   float64   `json:"return_pct"`
	Profitable  bool      `json:"profitable"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	Simulated   bool      `json:"simulated,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// PerformanceRecord is a persisted row keyed by SignalID
// (symbol_YYYYMMDD_HHMM, suffixed on minute collisions).
type PerformanceRecord struct {
	SignalID   string       `json:"-"`
	Timestamp  time.Time    `json:"timestamp"`
	Signal     Signal       `json:"signal"`
	Persona    string       `json:"persona"`
	EntryPrice float64      `json:"entry_price"`
	Status     RecordStatus `json:"status"`
	Outcome    *Outcome     `json:"outcome,omitempty"`
}

type EvaluationSummary struct {
	Evaluated int     `json:"evaluated"`
	Winners   int     `json:"winners"`
	Accuracy  float64 `json:"accuracy"`
}

type PerformanceStats struct {
	TotalSignals int     `json:"total_signals"`
	Accuracy     float64 `json:"accuracy"`
	AvgReturn    float64 `json:"avg_return"`
}

// SeriesPoint is one timestamped sample from the market data provider.
type SeriesPoint struct {
	Time  time.Time
	Value float64
}

// MarketSeries is the recent price/volume history for one asset,
// oldest sample first.
type MarketSeries struct {
	Prices  []SeriesPoint
	Volumes []SeriesPoint
}

// ScanMetrics are best-effort counters kept alongside scan runs.
type ScanMetrics struct {
	SignalsTriggeredToday int            `json:"signals_triggered_today"`
	PersonaScans          map[string]int `json:"persona_scans"`
	LastScanAt            time.Time      `json:"last_scan_at"`
}
