package scoring

import (
	"math"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// CompositeConfig is the per-strategy aggregation table: component
// weights, grade bands, and how to treat missing components. Loaded
// and validated once at startup, never per evaluation.
type CompositeConfig struct {
	// Weights maps component name to its configured weight. Declared
	// weights sum to 1.0; validation enforces this at load time.
	Weights map[string]float64

	// GradeBands ordered by descending threshold. The last band is the
	// catch-all.
	GradeBands []contracts.GradeBand

	// Renormalize divides the composite by the available weight total,
	// so a perfect score stays reachable when a component is missing.
	// When false, missing components implicitly cap the composite.
	Renormalize bool
}

// Composite aggregates component scores into one graded result.
// ⭐ SSOT: 종합 점수 집계는 여기서만
type Composite struct {
	cfg    CompositeConfig
	logger *logger.Logger
}

// NewComposite creates a composite scorer from a validated config.
func NewComposite(cfg CompositeConfig, log *logger.Logger) *Composite {
	return &Composite{
		cfg:    cfg,
		logger: log,
	}
}

// Score aggregates the given component scores. It is a deterministic
// pure function of its inputs: same components and config produce a
// bit-identical result. Unavailable components are excluded from both
// the numerator and the stated weight total.
func (c *Composite) Score(symbol string, components []contracts.ComponentScore) contracts.CompositeResult {
	stamped := make([]contracts.ComponentScore, len(components))
	copy(stamped, components)

	var sum, weightTotal float64
	for i := range stamped {
		stamped[i].Weight = c.cfg.Weights[stamped[i].Name]
		if !stamped[i].Available {
			continue
		}
		sum += stamped[i].Weighted()
		weightTotal += stamped[i].Weight
	}

	score := sum
	if c.cfg.Renormalize && weightTotal > 0 {
		score = sum / weightTotal
	}
	score = round1(score)

	band := c.gradeFor(score)

	result := contracts.CompositeResult{
		Score:            score,
		Grade:            band.Grade,
		GradeDescription: band.Description,
		Guidance:         band.Guidance,
		WeightTotal:      weightTotal,
		Components:       stamped,
	}
	result.Weakest, result.Strongest = extremesByValue(stamped)

	c.logger.WithFields(map[string]interface{}{
		"symbol":       symbol,
		"score":        score,
		"grade":        band.Grade,
		"weight_total": weightTotal,
		"excluded":     result.Excluded(),
	}).Debug("Calculated composite score")

	return result
}

// gradeFor returns the first band the score reaches. Bands are
// ordered by descending threshold; the last band catches everything
// below the lowest threshold.
func (c *Composite) gradeFor(score float64) contracts.GradeBand {
	for _, b := range c.cfg.GradeBands {
		if score >= b.Threshold {
			return b
		}
	}
	if n := len(c.cfg.GradeBands); n > 0 {
		return c.cfg.GradeBands[n-1]
	}
	return contracts.GradeBand{}
}

// extremesByValue finds the weakest and strongest available components
// by raw (unweighted) value. Ties keep the earlier component.
func extremesByValue(components []contracts.ComponentScore) (weakest, strongest string) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)

	for _, comp := range components {
		if !comp.Available {
			continue
		}
		if comp.Value < minV {
			minV = comp.Value
			weakest = comp.Name
		}
		if comp.Value > maxV {
			maxV = comp.Value
			strongest = comp.Name
		}
	}
	return weakest, strongest
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
