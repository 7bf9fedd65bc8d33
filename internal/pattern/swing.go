// Package pattern detects volatility-contraction setups in daily bar
// series: structural swing extraction, the multi-stage contraction
// check, and the pivot-proximity read used by the screener.
package pattern

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// Extractor finds structural swing highs/lows using a symmetric
// confirmation window.
// ⭐ SSOT: 스윙 포인트 추출은 여기서만
type Extractor struct {
	window int
}

// NewExtractor creates an extractor with confirmation window k.
// A bar is a swing high when its high strictly exceeds the highs of
// the k bars on each side (symmetric rule for lows).
func NewExtractor(window int) *Extractor {
	if window < 1 {
		window = 1
	}
	return &Extractor{window: window}
}

// Extract returns the swing points of the series in index order, with
// strict high/low alternation. A series shorter than 2k+1 bars has no
// interior bars with full context and yields no swings.
// Deterministic: same input, same output.
func (e *Extractor) Extract(bars contracts.Series) []contracts.Swing {
	n := bars.Len()
	k := e.window
	if n < 2*k+1 {
		return nil
	}

	var raw []contracts.Swing

	// Only interior indices [k, n-k) have enough context on both sides
	for i := k; i < n-k; i++ {
		if e.isSwingHigh(bars, i) {
			raw = append(raw, contracts.Swing{
				Index:     i,
				Kind:      contracts.SwingHigh,
				Price:     bars[i].High,
				Timestamp: bars[i].Timestamp,
			})
		}
		if e.isSwingLow(bars, i) {
			raw = append(raw, contracts.Swing{
				Index:     i,
				Kind:      contracts.SwingLow,
				Price:     bars[i].Low,
				Timestamp: bars[i].Timestamp,
			})
		}
	}

	return collapseSameKind(raw)
}

// isSwingHigh checks the strict window rule on highs. Ties disqualify:
// a plateau has no unique structural high.
func (e *Extractor) isSwingHigh(bars contracts.Series, i int) bool {
	h := bars[i].High
	for j := i - e.window; j <= i+e.window; j++ {
		if j == i {
			continue
		}
		if bars[j].High >= h {
			return false
		}
	}
	return true
}

// isSwingLow checks the strict window rule on lows
func (e *Extractor) isSwingLow(bars contracts.Series, i int) bool {
	l := bars[i].Low
	for j := i - e.window; j <= i+e.window; j++ {
		if j == i {
			continue
		}
		if bars[j].Low <= l {
			return false
		}
	}
	return true
}

// collapseSameKind enforces strict alternation: when two adjacent
// swings share a kind, only the more extreme survives (higher high,
// lower low). On equal prices the earlier swing is kept.
// 패턴 검출기는 고점/저점 교대를 전제로 함
func collapseSameKind(swings []contracts.Swing) []contracts.Swing {
	if len(swings) == 0 {
		return nil
	}

	out := make([]contracts.Swing, 0, len(swings))
	out = append(out, swings[0])

	for _, sw := range swings[1:] {
		top := &out[len(out)-1]
		if sw.Kind != top.Kind {
			out = append(out, sw)
			continue
		}

		switch sw.Kind {
		case contracts.SwingHigh:
			if sw.Price > top.Price {
				*top = sw
			}
		case contracts.SwingLow:
			if sw.Price < top.Price {
				*top = sw
			}
		}
	}

	return out
}
