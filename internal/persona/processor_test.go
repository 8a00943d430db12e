package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crypto-sentinel/internal/domain"
)

func testPersonas() map[string]domain.PersonaConfig {
	return map[string]domain.PersonaConfig{
		"novice_plus": {MaxInsightsPerDay: 3, EntryRadar: domain.RadarActive, Tone: domain.ToneExplanatory},
		"sniper":      {MaxInsightsPerDay: 1, EntryRadar: domain.RadarFiltered, Tone: domain.ToneTerse},
		"degen_scout": {MaxInsightsPerDay: 10, EntryRadar: domain.RadarHyper, Tone: domain.ToneTerse},
	}
}

func spiked(spikes ...float64) []domain.Signal {
	out := make([]domain.Signal, 0, len(spikes))
	for _, s := range spikes {
		out = append(out, domain.Signal{
			WhatHappened:     "BITCOIN broke resistance at $55000",
			WhyItMatters:     "Volume spike signals momentum",
			SuggestedPosture: domain.PostureAccumulate,
			VolumeSpikePct:   s,
		})
	}
	return out
}

func TestFilterSignalsActiveIsStrictlyGreater(t *testing.T) {
	p := NewProcessor(testPersonas())

	excluded := p.FilterSignals(spiked(30.0), "novice_plus")
	if len(excluded) != 0 {
		t.Fatalf("spike of exactly 30 must be excluded, got %d", len(excluded))
	}

	included := p.FilterSignals(spiked(30.0001), "novice_plus")
	if len(included) != 1 {
		t.Fatalf("spike just above 30 must pass, got %d", len(included))
	}
}

func TestFilterSignalsFilteredRadarUses50(t *testing.T) {
	p := NewProcessor(testPersonas())

	got := p.FilterSignals(spiked(40, 51, 50), "sniper")
	if len(got) != 1 || got[0].VolumeSpikePct != 51 {
		t.Fatalf("expected only the 51%% spike, got %+v", got)
	}
}

func TestFilterSignalsHyperKeepsAll(t *testing.T) {
	p := NewProcessor(testPersonas())
	if got := p.FilterSignals(spiked(0, 5, 100), "degen_scout"); len(got) != 3 {
		t.Fatalf("hyper radar should keep all signals, got %d", len(got))
	}
}

func TestFilterSignalsTruncatesToDailyCap(t *testing.T) {
	p := NewProcessor(testPersonas())

	got := p.FilterSignals(spiked(40, 50, 60, 70, 80), "novice_plus")
	if len(got) != 3 {
		t.Fatalf("expected exactly 3 insights, got %d", len(got))
	}
	// Input order, no re-ranking.
	if got[0].VolumeSpikePct != 40 || got[2].VolumeSpikePct != 60 {
		t.Fatalf("expected first three in input order, got %+v", got)
	}
}

func TestFilterSignalsUnknownPersonaPassesThrough(t *testing.T) {
	p := NewProcessor(testPersonas())
	signals := spiked(1, 2)
	if got := p.FilterSignals(signals, "whale_whisperer"); len(got) != len(signals) {
		t.Fatalf("unknown persona should pass everything, got %d", len(got))
	}
}

func TestFormatOutputEmptyBatch(t *testing.T) {
	p := NewProcessor(testPersonas())
	out := p.FormatOutput(nil, "novice_plus")
	if !strings.Contains(out, "No critical signals today") {
		t.Fatalf("expected the quiet-day message, got %q", out)
	}
}

func TestFormatOutputTerseVsExplanatory(t *testing.T) {
	p := NewProcessor(testPersonas())
	signals := spiked(60)

	terse := p.FormatOutput(signals, "sniper")
	if strings.Contains(terse, "Volume spike signals momentum") {
		t.Fatalf("terse tone must omit the rationale: %q", terse)
	}
	if !strings.Contains(terse, "accumulate") {
		t.Fatalf("terse tone must show the posture: %q", terse)
	}

	full := p.FormatOutput(signals, "novice_plus")
	if !strings.Contains(full, "Volume spike signals momentum") {
		t.Fatalf("explanatory tone must include the rationale: %q", full)
	}
	if !strings.Contains(full, "Posture: [accumulate]") {
		t.Fatalf("explanatory tone must show the posture block: %q", full)
	}
}

func TestFormatOutputJoinsBlocksWithBlankLine(t *testing.T) {
	p := NewProcessor(testPersonas())
	out := p.FormatOutput(spiked(60, 70), "novice_plus")
	if strings.Count(out, "\n\n") != 1 {
		t.Fatalf("expected exactly one blank-line separator, got %q", out)
	}
}

func TestFormatOutputUnknownPersonaDefaultsExplanatory(t *testing.T) {
	p := NewProcessor(testPersonas())
	out := p.FormatOutput(spiked(60), "whale_whisperer")
	if !strings.Contains(out, "Posture: [accumulate]") {
		t.Fatalf("unknown persona should use the explanatory layout: %q", out)
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	data := "novice_plus:\n  max_insights_per_day: 3\n  entry_radar: active\n  tone: explanatory\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, ok := presets["novice_plus"]
	if !ok {
		t.Fatal("expected novice_plus preset")
	}
	if cfg.MaxInsightsPerDay != 3 || cfg.EntryRadar != domain.RadarActive || cfg.Tone != domain.ToneExplanatory {
		t.Fatalf("unexpected preset: %+v", cfg)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing presets file")
	}
}
