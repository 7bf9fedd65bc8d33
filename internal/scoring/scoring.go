// Package scoring turns a detected contraction setup into component
// scores and one composite grade. Every scorer maps its raw metric
// onto a discrete band table; values are never interpolated between
// bands, so two setups in the same band score identically.
package scoring

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// Inputs bundles everything a component scorer may need. Scorers read
// only the fields they care about; missing input degrades the score to
// unavailable with a warning, never an error.
type Inputs struct {
	Symbol    string
	Bars      contracts.Series
	Facts     contracts.Facts
	Candidate *contracts.ContractionCandidate
}

// Scorer is the contract every component scorer implements.
// ⭐ SSOT: 컴포넌트 스코어러 인터페이스는 여기서만
type Scorer interface {
	Name() string
	Score(in Inputs) contracts.ComponentScore
}

// ThresholdBand maps a metric threshold to a band score.
type ThresholdBand struct {
	Threshold float64
	Score     float64
}

// scoreAtOrAbove walks bands ordered by descending threshold and
// returns the first band the value reaches. Higher metric, better
// score.
func scoreAtOrAbove(value float64, bands []ThresholdBand, fallback float64) float64 {
	for _, b := range bands {
		if value >= b.Threshold {
			return b.Score
		}
	}
	return fallback
}

// scoreAtOrBelow walks bands ordered by ascending threshold and
// returns the first band the value stays under. Lower metric, better
// score.
func scoreAtOrBelow(value float64, bands []ThresholdBand, fallback float64) float64 {
	for _, b := range bands {
		if value <= b.Threshold {
			return b.Score
		}
	}
	return fallback
}

func unavailable(name, warning string) contracts.ComponentScore {
	return contracts.ComponentScore{
		Name:    name,
		Value:   0,
		Warning: warning,
	}
}
