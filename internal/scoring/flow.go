package scoring

import (
	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Net buying bands in KRW over the combined 5-day foreign plus
// institutional flow. 100억 of combined net buying into a tightening
// base is strong sponsorship; net selling into it is distribution.
var flowBands = []ThresholdBand{
	{Threshold: 10_000_000_000, Score: 90}, // 100억+
	{Threshold: 5_000_000_000, Score: 75},  // 50억+
	{Threshold: 1_000_000_000, Score: 60},  // 10억+
	{Threshold: 0, Score: 45},
}

const flowFallbackScore = 20

// FlowScorer grades investor flow (수급) behind the setup.
// ⭐ SSOT: 수급 점수는 여기서만
type FlowScorer struct {
	logger *logger.Logger
}

// NewFlowScorer creates an investor flow scorer.
func NewFlowScorer(log *logger.Logger) *FlowScorer {
	return &FlowScorer{logger: log}
}

// Name implements Scorer.
func (s *FlowScorer) Name() string { return contracts.ComponentFlow }

// Score implements Scorer. Both flow facts must be present; flow data
// lags the price feed, so a missing fact degrades to a warning rather
// than failing the evaluation.
func (s *FlowScorer) Score(in Inputs) contracts.ComponentScore {
	foreign, ok := in.Facts.Get(contracts.FactForeignNet5D)
	if !ok {
		return unavailable(s.Name(), "fact "+contracts.FactForeignNet5D+" missing")
	}
	inst, ok := in.Facts.Get(contracts.FactInstNet5D)
	if !ok {
		return unavailable(s.Name(), "fact "+contracts.FactInstNet5D+" missing")
	}

	combined := foreign + inst
	value := scoreAtOrAbove(combined, flowBands, flowFallbackScore)

	s.logger.WithFields(map[string]interface{}{
		"symbol":         in.Symbol,
		"foreign_net_5d": foreign,
		"inst_net_5d":    inst,
		"combined":       combined,
		"score":          value,
	}).Debug("Calculated flow score")

	return contracts.ComponentScore{
		Name:      s.Name(),
		Value:     value,
		Available: true,
	}
}
