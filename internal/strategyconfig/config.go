package strategyconfig

import (
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// Config는 종가베팅 스크리너 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Pattern   Pattern   `yaml:"pattern" json:"pattern"`
	Proximity Proximity `yaml:"proximity" json:"proximity"`
	Volume    Volume    `yaml:"volume" json:"volume"`
	Trend     Trend     `yaml:"trend" json:"trend"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Signals   Signals   `yaml:"signals" json:"signals"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Exchange   string `yaml:"exchange" json:"exchange"`
	Timeframe  string `yaml:"timeframe" json:"timeframe"`
	SignalType string `yaml:"signal_type" json:"signal_type"`
}

// Pattern 수축 패턴 탐지 파라미터
type Pattern struct {
	SwingWindow            int     `yaml:"swing_window" json:"swing_window"`
	Lookback               int     `yaml:"lookback" json:"lookback"`
	MinRatio12             float64 `yaml:"min_ratio_12" json:"min_ratio_12"`
	MinRatio23             float64 `yaml:"min_ratio_23" json:"min_ratio_23"`
	RequireDescendingHighs bool    `yaml:"require_descending_highs" json:"require_descending_highs"`
	RequireAscendingLows   bool    `yaml:"require_ascending_lows" json:"require_ascending_lows"`
}

// Proximity 피벗 근접도 평가 파라미터
type Proximity struct {
	StopBufferPct  float64        `yaml:"stop_buffer_pct" json:"stop_buffer_pct"`
	BreakoutMaxPct float64        `yaml:"breakout_max_pct" json:"breakout_max_pct"`
	BreakoutBonus  float64        `yaml:"breakout_bonus" json:"breakout_bonus"`
	VolumeLookback int            `yaml:"volume_lookback" json:"volume_lookback"`
	DistanceBands  []DistanceBand `yaml:"distance_bands" json:"distance_bands"`
}

// DistanceBand 피벗 대비 거리 구간 [min, max) → 점수
type DistanceBand struct {
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Score float64 `yaml:"score" json:"score"`
}

// Volume 거래량 드라이업 윈도우
type Volume struct {
	ShortWindow int `yaml:"short_window" json:"short_window"`
	LongWindow  int `yaml:"long_window" json:"long_window"`
}

// Trend 추세 위치 윈도우
type Trend struct {
	MAWindow int `yaml:"ma_window" json:"ma_window"`
}

// Scoring 종합 점수 집계 설정
type Scoring struct {
	Renormalize        bool                  `yaml:"renormalize" json:"renormalize"`
	ActionabilityFloor float64               `yaml:"actionability_floor" json:"actionability_floor"`
	Weights            Weights               `yaml:"weights" json:"weights"`
	GradeBands         []contracts.GradeBand `yaml:"grade_bands" json:"grade_bands"`
}

// Weights 컴포넌트 가중치 (합 = 1.0)
// 주의: 해시 재현성을 위해 map 대신 struct 사용
type Weights struct {
	Proximity   float64 `yaml:"proximity" json:"proximity"`
	Contraction float64 `yaml:"contraction" json:"contraction"`
	Volume      float64 `yaml:"volume" json:"volume"`
	Trend       float64 `yaml:"trend" json:"trend"`
	Flow        float64 `yaml:"flow" json:"flow"`
}

// Sum returns the sum of all weights
func (w Weights) Sum() float64 {
	return w.Proximity + w.Contraction + w.Volume + w.Trend + w.Flow
}

// Map returns the weights keyed by component name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		contracts.ComponentProximity:   w.Proximity,
		contracts.ComponentContraction: w.Contraction,
		contracts.ComponentVolume:      w.Volume,
		contracts.ComponentTrend:       w.Trend,
		contracts.ComponentFlow:        w.Flow,
	}
}

// Signals 시그널 발행/중복 억제 설정
type Signals struct {
	CooldownSeconds int64 `yaml:"cooldown_seconds" json:"cooldown_seconds"`
}

// Cooldown returns the suppression window as a Duration.
func (s Signals) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}
