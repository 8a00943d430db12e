package persona

import (
	"fmt"
	"os"
	"strings"

	"crypto-sentinel/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxInsights = 3

	noSignalsMessage = "🟢 No critical signals today. Stay the course.\n\n" +
		"📈 Entry Radar Status: None triggered\n" +
		"🧠 Daily Reflection: Let others chase the obvious."
)

// Processor filters and renders signal batches per consumer profile.
// Presets are loaded once and treated as read-only.
type Processor struct {
	personas map[string]domain.PersonaConfig
}

func NewProcessor(personas map[string]domain.PersonaConfig) *Processor {
	if personas == nil {
		personas = map[string]domain.PersonaConfig{}
	}
	return &Processor{personas: personas}
}

// LoadPresets reads the persona preset mapping from a YAML file.
func LoadPresets(path string) (map[string]domain.PersonaConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona presets: %w", err)
	}
	presets := map[string]domain.PersonaConfig{}
	if err := yaml.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("parse persona presets: %w", err)
	}
	return presets, nil
}

// FilterSignals applies the persona's entry-radar sensitivity and daily cap.
// Unknown personas see everything. Truncation keeps input order.
func (p *Processor) FilterSignals(signals []domain.Signal, persona string) []domain.Signal {
	if len(signals) == 0 {
		return nil
	}

	cfg, known := p.personas[persona]
	if !known {
		return signals
	}

	maxInsights := cfg.MaxInsightsPerDay
	if maxInsights <= 0 {
		maxInsights = defaultMaxInsights
	}

	var filtered []domain.Signal
	switch cfg.EntryRadar {
	case domain.RadarHyper:
		filtered = signals
	case domain.RadarActive:
		filtered = withSpikeAbove(signals, 30.0)
	default:
		filtered = withSpikeAbove(signals, 50.0)
	}

	if len(filtered) > maxInsights {
		filtered = filtered[:maxInsights]
	}
	return filtered
}

// FormatOutput renders one block per signal in the persona's tone, blocks
// separated by a blank line. An empty batch gets the fixed quiet-day text.
func (p *Processor) FormatOutput(signals []domain.Signal, persona string) string {
	if len(signals) == 0 {
		return noSignalsMessage
	}

	tone := domain.ToneExplanatory
	if cfg, ok := p.personas[persona]; ok && cfg.Tone != "" {
		tone = cfg.Tone
	}

	blocks := make([]string, 0, len(signals))
	for _, s := range signals {
		if tone == domain.ToneTerse {
			blocks = append(blocks, fmt.Sprintf("• 🔍 %s\n🎯 %s", s.WhatHappened, s.SuggestedPosture))
			continue
		}
		blocks = append(blocks, fmt.Sprintf("• 🔍 %s\n📉 %s\n🎯 Posture: [%s]", s.WhatHappened, s.WhyItMatters, s.SuggestedPosture))
	}
	return strings.Join(blocks, "\n\n")
}

// Known reports whether a persona preset exists.
func (p *Processor) Known(persona string) bool {
	_, ok := p.personas[persona]
	return ok
}

func withSpikeAbove(signals []domain.Signal, threshold float64) []domain.Signal {
	out := make([]domain.Signal, 0, len(signals))
	for _, s := range signals {
		if s.VolumeSpikePct > threshold {
			out = append(out, s)
		}
	}
	return out
}
