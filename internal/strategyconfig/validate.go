package strategyconfig

import (
	"fmt"
	"math"
	"sort"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Version == "" {
		return ValidationError{"meta.version", "required"}
	}
	if cfg.Meta.Exchange == "" {
		return ValidationError{"meta.exchange", "required"}
	}
	if cfg.Meta.Timeframe == "" {
		return ValidationError{"meta.timeframe", "required"}
	}
	if cfg.Meta.SignalType == "" {
		return ValidationError{"meta.signal_type", "required"}
	}

	// === Pattern ===
	if cfg.Pattern.SwingWindow < 1 {
		return ValidationError{"pattern.swing_window", "must be >= 1"}
	}
	// 최소 2k+1 봉이 있어야 스윙이 하나라도 나옴
	minBars := 2*cfg.Pattern.SwingWindow + 1
	if cfg.Pattern.Lookback < minBars {
		return ValidationError{"pattern.lookback", fmt.Sprintf("must be >= %d (2*swing_window+1)", minBars)}
	}
	if cfg.Pattern.MinRatio12 <= 0 {
		return ValidationError{"pattern.min_ratio_12", "must be > 0"}
	}
	if cfg.Pattern.MinRatio23 <= 0 {
		return ValidationError{"pattern.min_ratio_23", "must be > 0"}
	}

	// === Proximity ===
	if cfg.Proximity.StopBufferPct < 0 || cfg.Proximity.StopBufferPct >= 100 {
		return ValidationError{"proximity.stop_buffer_pct", "must be in [0, 100)"}
	}
	if cfg.Proximity.BreakoutMaxPct <= 0 {
		return ValidationError{"proximity.breakout_max_pct", "must be > 0"}
	}
	if cfg.Proximity.BreakoutBonus < 0 {
		return ValidationError{"proximity.breakout_bonus", "must be >= 0"}
	}
	if cfg.Proximity.VolumeLookback < 1 {
		return ValidationError{"proximity.volume_lookback", "must be >= 1"}
	}
	if err := validateDistanceBands(cfg.Proximity.DistanceBands); err != nil {
		return err
	}

	// === Volume ===
	if cfg.Volume.ShortWindow < 1 {
		return ValidationError{"volume.short_window", "must be >= 1"}
	}
	if cfg.Volume.LongWindow <= cfg.Volume.ShortWindow {
		return ValidationError{"volume.long_window", "must be > short_window"}
	}

	// === Trend ===
	if cfg.Trend.MAWindow < 1 {
		return ValidationError{"trend.ma_window", "must be >= 1"}
	}

	// === Scoring ===
	if math.Abs(cfg.Scoring.Weights.Sum()-1.0) > 1e-6 {
		return ValidationError{"scoring.weights", fmt.Sprintf("must sum to 1.0, got %.4f", cfg.Scoring.Weights.Sum())}
	}
	for name, w := range cfg.Scoring.Weights.Map() {
		if w < 0 {
			return ValidationError{"scoring.weights." + name, "must be >= 0"}
		}
	}
	if cfg.Scoring.ActionabilityFloor < 0 || cfg.Scoring.ActionabilityFloor > 100 {
		return ValidationError{"scoring.actionability_floor", "must be in [0, 100]"}
	}
	if err := validateGradeBands(cfg.Scoring.GradeBands); err != nil {
		return err
	}

	// === Signals ===
	if cfg.Signals.CooldownSeconds < 0 {
		return ValidationError{"signals.cooldown_seconds", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 수축 비율 < 1.0이면 느슨해지는 패턴도 통과
	if cfg.Pattern.MinRatio12 < 1.0 || cfg.Pattern.MinRatio23 < 1.0 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_RATIO",
			Message: "min_ratio < 1.0: 수축이 아닌 확장 패턴도 통과됨",
		})
	}

	// cooldown 0이면 같은 시그널이 매 스캔마다 재발행됨
	if cfg.Signals.CooldownSeconds == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_COOLDOWN",
			Message: "cooldown_seconds=0: 동일 시그널이 스캔마다 재알림됨",
		})
	}

	// actionability floor 0이면 모든 등급이 발행됨
	if cfg.Scoring.ActionabilityFloor == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_FLOOR",
			Message: "actionability_floor=0: D등급 셋업도 시그널로 발행됨",
		})
	}

	return warnings
}

// === Helper Functions ===

// validateDistanceBands는 구간이 비어있지 않고 서로 겹치지 않는지 검증
// 겹치면 first-match 평가가 순서 의존적이 되므로 중단
func validateDistanceBands(bands []DistanceBand) error {
	if len(bands) == 0 {
		return ValidationError{"proximity.distance_bands", "required"}
	}

	for i, b := range bands {
		if b.Min >= b.Max {
			return ValidationError{
				Field:   fmt.Sprintf("proximity.distance_bands[%d]", i),
				Message: fmt.Sprintf("min=%.2f must be < max=%.2f", b.Min, b.Max),
			}
		}
		if b.Score < 0 || b.Score > 100 {
			return ValidationError{
				Field:   fmt.Sprintf("proximity.distance_bands[%d].score", i),
				Message: "must be in [0, 100]",
			}
		}
	}

	sorted := make([]DistanceBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min < sorted[i-1].Max {
			return ValidationError{
				Field:   "proximity.distance_bands",
				Message: fmt.Sprintf("bands [%.2f,%.2f) and [%.2f,%.2f) overlap", sorted[i-1].Min, sorted[i-1].Max, sorted[i].Min, sorted[i].Max),
			}
		}
	}

	return nil
}

// validateGradeBands는 등급 임계값이 엄격히 내림차순인지 검증
func validateGradeBands(bands []contracts.GradeBand) error {
	if len(bands) == 0 {
		return ValidationError{"scoring.grade_bands", "required"}
	}

	for i, b := range bands {
		if b.Grade == "" {
			return ValidationError{
				Field:   fmt.Sprintf("scoring.grade_bands[%d].grade", i),
				Message: "required",
			}
		}
		if i > 0 && b.Threshold >= bands[i-1].Threshold {
			return ValidationError{
				Field:   "scoring.grade_bands",
				Message: fmt.Sprintf("thresholds must be strictly descending, got %.1f after %.1f", b.Threshold, bands[i-1].Threshold),
			}
		}
	}

	return nil
}
