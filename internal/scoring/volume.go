package scoring

import (
	"fmt"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Dry-up bands over recent volume as a percentage of the long-run
// average. Volume contracting to less than half the baseline is the
// hallmark of supply exhaustion; expanding volume before the breakout
// is a red flag.
var volumeBands = []ThresholdBand{
	{Threshold: 40, Score: 90},
	{Threshold: 60, Score: 75},
	{Threshold: 80, Score: 55},
	{Threshold: 100, Score: 35},
}

const volumeFallbackScore = 15

// VolumeScorer grades volume dry-up ahead of the pivot.
// ⭐ SSOT: 거래량 드라이업 점수는 여기서만
type VolumeScorer struct {
	shortWindow int
	longWindow  int
	logger      *logger.Logger
}

// NewVolumeScorer creates a volume dry-up scorer comparing the mean
// volume of the last shortWindow bars against the last longWindow
// bars. The most recent bar is excluded from both means so a breakout
// day's spike cannot mask the preceding dry-up.
func NewVolumeScorer(shortWindow, longWindow int, log *logger.Logger) *VolumeScorer {
	return &VolumeScorer{
		shortWindow: shortWindow,
		longWindow:  longWindow,
		logger:      log,
	}
}

// Name implements Scorer.
func (s *VolumeScorer) Name() string { return contracts.ComponentVolume }

// Score implements Scorer.
func (s *VolumeScorer) Score(in Inputs) contracts.ComponentScore {
	shortAvg, ok := in.Bars.AvgVolumeBeforeLast(s.shortWindow)
	if !ok {
		return unavailable(s.Name(), fmt.Sprintf("need %d bars for volume dry-up, have %d", s.longWindow+1, in.Bars.Len()))
	}
	longAvg, ok := in.Bars.AvgVolumeBeforeLast(s.longWindow)
	if !ok {
		return unavailable(s.Name(), fmt.Sprintf("need %d bars for volume dry-up, have %d", s.longWindow+1, in.Bars.Len()))
	}
	if longAvg <= 0 {
		return unavailable(s.Name(), "long-run volume average is zero")
	}

	ratio := shortAvg / longAvg * 100
	value := scoreAtOrBelow(ratio, volumeBands, volumeFallbackScore)

	s.logger.WithFields(map[string]interface{}{
		"symbol":       in.Symbol,
		"dryup_ratio":  ratio,
		"short_window": s.shortWindow,
		"long_window":  s.longWindow,
		"score":        value,
	}).Debug("Calculated volume score")

	return contracts.ComponentScore{
		Name:      s.Name(),
		Value:     value,
		Available: true,
	}
}
