package pattern

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Floor for ratio denominators. Depths below this are treated as this
// value so a near-zero third contraction cannot explode the ratio.
const minDepthDenominator = 0.01

// DetectorConfig holds the structural thresholds for one strategy
// family. Validated at config-load time, not per evaluation.
type DetectorConfig struct {
	// Swing confirmation window (k)
	Window int
	// Most recent bars to consider
	Lookback int
	// Minimum tightening between stage 1→2 and 2→3
	MinRatio12 float64
	MinRatio23 float64
	// Optional ordering checks on the raw swing prices
	RequireDescendingHighs bool
	RequireAscendingLows   bool
}

// Detector recognizes a three-stage volatility contraction from the
// swing structure of a bar series.
// ⭐ SSOT: 수축 패턴 판정은 여기서만
//
// The check is structural, not statistical: each pullback must be
// shallower than the last, and the rate of tightening itself must
// clear a floor. Any missing structural element rejects the candidate
// outright instead of guessing.
type Detector struct {
	cfg       DetectorConfig
	extractor *Extractor
	logger    *logger.Logger
}

// NewDetector creates a detector for one strategy family
func NewDetector(cfg DetectorConfig, log *logger.Logger) *Detector {
	return &Detector{
		cfg:       cfg,
		extractor: NewExtractor(cfg.Window),
		logger:    log,
	}
}

// Detect returns the contraction candidate for the series, or nil
// when no valid setup exists. Rejection is normal operation, never an
// error: the scheduler runs unattended over thousands of symbols.
func (d *Detector) Detect(symbol string, bars contracts.Series) *contracts.ContractionCandidate {
	window := bars.Tail(d.cfg.Lookback)

	swings := d.extractor.Extract(window)

	var highs, lows []contracts.Swing
	for _, sw := range swings {
		if sw.IsHigh() {
			highs = append(highs, sw)
		} else {
			lows = append(lows, sw)
		}
	}

	if len(highs) < 3 || len(lows) < 2 {
		d.reject(symbol, "not enough swing structure")
		return nil
	}

	// Three most recent highs, chronological. The last one is the
	// candidate pivot.
	h1 := highs[len(highs)-3]
	h2 := highs[len(highs)-2]
	h3 := highs[len(highs)-1]

	l1, ok := lowestLowBetween(lows, h1.Index, h2.Index)
	if !ok {
		d.reject(symbol, "no low between first and second high")
		return nil
	}
	l2, ok := lowestLowBetween(lows, h2.Index, h3.Index)
	if !ok {
		d.reject(symbol, "no low between second and third high")
		return nil
	}

	// Third leg: a confirmed low after the pivot when one exists,
	// otherwise the lowest close since the pivot stands in for the
	// still-forming contraction.
	l3, ok := lowAfter(lows, h3.Index)
	if !ok {
		minClose, found := window.MinCloseFrom(h3.Index)
		if !found {
			d.reject(symbol, "no price action after pivot")
			return nil
		}
		l3 = contracts.Swing{
			Index: h3.Index,
			Kind:  contracts.SwingLow,
			Price: minClose,
		}
	}

	c1 := depthPct(h1.Price, l1.Price)
	c2 := depthPct(h2.Price, l2.Price)
	c3 := depthPct(h3.Price, l3.Price)

	// Tightening must be strict at every stage
	if !(c1 > c2 && c2 > c3 && c3 > 0) {
		d.reject(symbol, "contractions not strictly decreasing")
		return nil
	}

	r12 := c1 / floorDepth(c2)
	r23 := c2 / floorDepth(c3)

	if r12 < d.cfg.MinRatio12 || r23 < d.cfg.MinRatio23 {
		d.reject(symbol, "tightening ratio below minimum")
		return nil
	}

	if d.cfg.RequireDescendingHighs && !(h1.Price > h2.Price && h2.Price > h3.Price) {
		d.reject(symbol, "highs not descending")
		return nil
	}
	if d.cfg.RequireAscendingLows && !(l1.Price < l2.Price && l2.Price < l3.Price) {
		d.reject(symbol, "lows not ascending")
		return nil
	}

	cand := &contracts.ContractionCandidate{
		Symbol:     symbol,
		PivotPrice: h3.Price,
		Contractions: []contracts.Contraction{
			{High: h1, Low: l1, DepthPct: c1},
			{High: h2, Low: l2, DepthPct: c2},
			{High: h3, Low: l3, DepthPct: c3},
		},
		Ratios:      []float64{r12, r23},
		SwingPoints: []contracts.Swing{h1, l1, h2, l2, h3},
	}

	d.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"pivot":  cand.PivotPrice,
		"c1":     c1,
		"c2":     c2,
		"c3":     c3,
		"r12":    r12,
		"r23":    r23,
	}).Debug("Contraction candidate detected")

	return cand
}

func (d *Detector) reject(symbol, reason string) {
	d.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"reason": reason,
	}).Debug("No contraction candidate")
}

// depthPct is the percentage drop from a high to its paired low
func depthPct(high, low float64) float64 {
	if high <= 0 {
		return 0
	}
	return (high - low) / high * 100
}

func floorDepth(depth float64) float64 {
	if depth < minDepthDenominator {
		return minDepthDenominator
	}
	return depth
}

// lowestLowBetween scans the lows strictly between two swing indices
// and returns the one with the lowest price.
func lowestLowBetween(lows []contracts.Swing, from, to int) (contracts.Swing, bool) {
	var best contracts.Swing
	found := false
	for _, sw := range lows {
		if sw.Index <= from || sw.Index >= to {
			continue
		}
		if !found || sw.Price < best.Price {
			best = sw
			found = true
		}
	}
	return best, found
}

// lowAfter returns the first low strictly after the given index
func lowAfter(lows []contracts.Swing, after int) (contracts.Swing, bool) {
	for _, sw := range lows {
		if sw.Index > after {
			return sw, true
		}
	}
	return contracts.Swing{}, false
}
