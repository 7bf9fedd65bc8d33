package pattern

import (
	"fmt"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// DistanceBand maps a half-open distance range [Min, Max) in percent
// from the pivot to a discrete score.
type DistanceBand struct {
	Min   float64
	Max   float64
	Score float64
}

// ProximityConfig parameterizes the pivot-proximity read.
// 밴드 값은 전략 YAML에서 옴
type ProximityConfig struct {
	DistanceBands []DistanceBand
	// Bonus applies only when price is 0..BreakoutMaxPct above the
	// pivot and the latest bar's volume beats the recent average.
	BreakoutMaxPct float64
	BreakoutBonus  float64
	// Stop goes this far below the last contraction low
	StopBufferPct float64
	// Bars for the volume-confirmation average
	VolumeLookback int
}

// AssessProximity scores where the current price sits relative to the
// pivot and derives the stop plan. Closer to, or just above, the pivot
// scores highest; far below or far overhead scores low. A price that
// has already fallen through the stop invalidates the setup: status
// flips to invalid and the score collapses to zero.
func AssessProximity(cand *contracts.ContractionCandidate, bars contracts.Series, cfg ProximityConfig) (contracts.ComponentScore, contracts.ProximityAssessment) {
	score := contracts.ComponentScore{Name: contracts.ComponentProximity}

	last, ok := bars.Last()
	if !ok {
		score.Warning = "no bars available"
		return score, contracts.ProximityAssessment{}
	}
	price := last.Close
	if price <= 0 {
		score.Warning = "non-positive close price"
		return score, contracts.ProximityAssessment{}
	}

	assessment := contracts.ProximityAssessment{
		DistancePct: (price - cand.PivotPrice) / cand.PivotPrice * 100,
	}

	if lastLow, ok := cand.LastLow(); ok {
		assessment.StopPrice = lastLow.Price * (1 - cfg.StopBufferPct/100)
		assessment.RiskPct = (price - assessment.StopPrice) / price * 100
	}

	switch {
	case assessment.StopPrice > 0 && price < assessment.StopPrice:
		assessment.Status = contracts.TradeStatusInvalid
	case price >= cand.PivotPrice:
		assessment.Status = contracts.TradeStatusBreakout
	default:
		assessment.Status = contracts.TradeStatusWatch
	}

	// A broken stop overrides everything else
	if assessment.Status == contracts.TradeStatusInvalid {
		score.Value = 0
		score.Available = true
		score.Warning = fmt.Sprintf("price %.2f below stop %.2f, setup invalidated", price, assessment.StopPrice)
		return score, assessment
	}

	score.Value = scoreDistance(assessment.DistancePct, cfg.DistanceBands)
	score.Available = true

	// Breakout bonus: just above the pivot, on volume
	if assessment.DistancePct >= 0 && assessment.DistancePct <= cfg.BreakoutMaxPct {
		if avg, ok := bars.AvgVolumeBeforeLast(cfg.VolumeLookback); ok && float64(last.Volume) > avg {
			assessment.VolumeConfirmed = true
			score.Value += cfg.BreakoutBonus
			if score.Value > 100 {
				score.Value = 100
			}
		}
	}

	return score, assessment
}

// scoreDistance picks the first band containing the distance.
// Bands are validated at load time to be ordered and non-overlapping;
// a distance outside every band scores zero.
func scoreDistance(distancePct float64, bands []DistanceBand) float64 {
	for _, b := range bands {
		if distancePct >= b.Min && distancePct < b.Max {
			return b.Score
		}
	}
	return 0
}
