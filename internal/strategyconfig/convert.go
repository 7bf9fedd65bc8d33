package strategyconfig

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/pattern"
	"github.com/point10890-crypto/closing-bet-sub003/internal/scoring"
)

// DetectorConfig maps the pattern section onto the detector's config.
func (c *Config) DetectorConfig() pattern.DetectorConfig {
	return pattern.DetectorConfig{
		Window:                 c.Pattern.SwingWindow,
		Lookback:               c.Pattern.Lookback,
		MinRatio12:             c.Pattern.MinRatio12,
		MinRatio23:             c.Pattern.MinRatio23,
		RequireDescendingHighs: c.Pattern.RequireDescendingHighs,
		RequireAscendingLows:   c.Pattern.RequireAscendingLows,
	}
}

// ProximityConfig maps the proximity section onto the assessor's config.
func (c *Config) ProximityConfig() pattern.ProximityConfig {
	bands := make([]pattern.DistanceBand, len(c.Proximity.DistanceBands))
	for i, b := range c.Proximity.DistanceBands {
		bands[i] = pattern.DistanceBand{Min: b.Min, Max: b.Max, Score: b.Score}
	}

	return pattern.ProximityConfig{
		DistanceBands:  bands,
		BreakoutMaxPct: c.Proximity.BreakoutMaxPct,
		BreakoutBonus:  c.Proximity.BreakoutBonus,
		StopBufferPct:  c.Proximity.StopBufferPct,
		VolumeLookback: c.Proximity.VolumeLookback,
	}
}

// CompositeConfig maps the scoring section onto the composite's config.
func (c *Config) CompositeConfig() scoring.CompositeConfig {
	return scoring.CompositeConfig{
		Weights:     c.Scoring.Weights.Map(),
		GradeBands:  c.Scoring.GradeBands,
		Renormalize: c.Scoring.Renormalize,
	}
}
