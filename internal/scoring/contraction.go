package scoring

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Tightening quality bands over the mean contraction ratio. A setup
// whose pullbacks shrink by half each leg (ratio 2.0) is textbook; a
// ratio barely above 1.0 means the range is not really drying up.
var contractionBands = []ThresholdBand{
	{Threshold: 1.5, Score: 95},
	{Threshold: 1.35, Score: 85},
	{Threshold: 1.2, Score: 70},
	{Threshold: 1.0, Score: 50},
}

const contractionFallbackScore = 30

// ContractionScorer grades how decisively the pullback depths tighten.
// ⭐ SSOT: 수축 강도 점수는 여기서만
type ContractionScorer struct {
	logger *logger.Logger
}

// NewContractionScorer creates a contraction tightening scorer.
func NewContractionScorer(log *logger.Logger) *ContractionScorer {
	return &ContractionScorer{logger: log}
}

// Name implements Scorer.
func (s *ContractionScorer) Name() string { return contracts.ComponentContraction }

// Score implements Scorer. The metric is the mean of the successive
// depth ratios (c1/c2, c2/c3).
func (s *ContractionScorer) Score(in Inputs) contracts.ComponentScore {
	if in.Candidate == nil || len(in.Candidate.Ratios) == 0 {
		return unavailable(s.Name(), "no contraction candidate to grade")
	}

	var sum float64
	for _, r := range in.Candidate.Ratios {
		sum += r
	}
	mean := sum / float64(len(in.Candidate.Ratios))

	value := scoreAtOrAbove(mean, contractionBands, contractionFallbackScore)

	s.logger.WithFields(map[string]interface{}{
		"symbol":     in.Symbol,
		"mean_ratio": mean,
		"score":      value,
	}).Debug("Calculated contraction score")

	return contracts.ComponentScore{
		Name:      s.Name(),
		Value:     value,
		Available: true,
	}
}
