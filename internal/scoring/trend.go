package scoring

import (
	"fmt"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// TrendScorer grades where price sits relative to its long moving
// average. A contraction resolving just above a rising base is the
// setup we want; one far above the average is extended, one far below
// is broken.
// ⭐ SSOT: 추세 위치 점수는 여기서만
type TrendScorer struct {
	maWindow int
	logger   *logger.Logger
}

// NewTrendScorer creates a trend position scorer over an maWindow-bar
// simple moving average of closes.
func NewTrendScorer(maWindow int, log *logger.Logger) *TrendScorer {
	return &TrendScorer{
		maWindow: maWindow,
		logger:   log,
	}
}

// Name implements Scorer.
func (s *TrendScorer) Name() string { return contracts.ComponentTrend }

// Score implements Scorer.
func (s *TrendScorer) Score(in Inputs) contracts.ComponentScore {
	if in.Bars.Len() < s.maWindow {
		return unavailable(s.Name(), fmt.Sprintf("need %d bars for trend MA, have %d", s.maWindow, in.Bars.Len()))
	}

	last, _ := in.Bars.Last()
	ma := s.movingAverage(in.Bars)
	if ma <= 0 {
		return unavailable(s.Name(), "moving average is zero")
	}

	pctAbove := (last.Close - ma) / ma * 100
	value := s.bandScore(pctAbove)

	s.logger.WithFields(map[string]interface{}{
		"symbol":    in.Symbol,
		"ma_window": s.maWindow,
		"ma":        ma,
		"pct_above": pctAbove,
		"score":     value,
	}).Debug("Calculated trend score")

	return contracts.ComponentScore{
		Name:      s.Name(),
		Value:     value,
		Available: true,
	}
}

// movingAverage computes the simple MA of the last maWindow closes,
// including the most recent bar.
func (s *TrendScorer) movingAverage(bars contracts.Series) float64 {
	window := bars.Tail(s.maWindow)

	var sum float64
	for _, b := range window {
		sum += b.Close
	}
	return sum / float64(len(window))
}

// bandScore maps the distance above the MA onto a band. The mapping
// is not monotone: slightly above is best, far above is chasing.
func (s *TrendScorer) bandScore(pctAbove float64) float64 {
	switch {
	case pctAbove >= 15:
		return 40 // 과열 (extended)
	case pctAbove >= 5:
		return 70
	case pctAbove >= 0:
		return 85 // 이상적인 위치
	case pctAbove >= -5:
		return 50
	default:
		return 20 // 추세 이탈
	}
}
