package strategyconfig

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// validConfig returns a config that passes Validate. Tests mutate one
// field at a time to probe individual constraints.
func validConfig() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "closing_bet_v1",
			Version:    "1.0.0",
			Exchange:   "KRX",
			Timeframe:  "D",
			SignalType: "vcp_contraction",
		},
		Pattern: Pattern{
			SwingWindow:            5,
			Lookback:               250,
			MinRatio12:             1.2,
			MinRatio23:             1.2,
			RequireDescendingHighs: true,
		},
		Proximity: Proximity{
			StopBufferPct:  2.0,
			BreakoutMaxPct: 5.0,
			BreakoutBonus:  10,
			VolumeLookback: 20,
			DistanceBands: []DistanceBand{
				{Min: 0, Max: 5, Score: 90},
				{Min: -3, Max: 0, Score: 85},
				{Min: -8, Max: -3, Score: 70},
				{Min: -15, Max: -8, Score: 45},
				{Min: -100, Max: -15, Score: 20},
				{Min: 5, Max: 1000, Score: 30},
			},
		},
		Volume: Volume{ShortWindow: 5, LongWindow: 50},
		Trend:  Trend{MAWindow: 50},
		Scoring: Scoring{
			ActionabilityFloor: 55,
			Weights: Weights{
				Proximity:   0.30,
				Contraction: 0.25,
				Volume:      0.20,
				Trend:       0.15,
				Flow:        0.10,
			},
			GradeBands: []contracts.GradeBand{
				{Threshold: 85, Grade: "A"},
				{Threshold: 70, Grade: "B"},
				{Threshold: 55, Grade: "C"},
				{Threshold: 0, Grade: "D"},
			},
		},
		Signals: Signals{CooldownSeconds: 86400},
	}
}

func TestLoad(t *testing.T) {
	cfg, yamlData, err := Load("../../config/closing_bet_v1.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.StrategyID != "closing_bet_v1" {
		t.Errorf("expected strategy_id=closing_bet_v1, got %s", cfg.Meta.StrategyID)
	}
	if cfg.Pattern.SwingWindow != 5 {
		t.Errorf("expected swing_window=5, got %d", cfg.Pattern.SwingWindow)
	}
	if cfg.Signals.Cooldown() != 24*time.Hour {
		t.Errorf("expected 24h cooldown, got %s", cfg.Signals.Cooldown())
	}
	if len(cfg.Proximity.DistanceBands) != 6 {
		t.Errorf("expected 6 distance bands, got %d", len(cfg.Proximity.DistanceBands))
	}
	if len(cfg.Scoring.GradeBands) != 4 {
		t.Errorf("expected 4 grade bands, got %d", len(cfg.Scoring.GradeBands))
	}

	// 해시 생성
	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	t.Logf("config hash: %s", hash)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	// KnownFields(true): 오타 필드는 기본값으로 흡수되지 않고 즉시 실패
	path := filepath.Join(t.TempDir(), "typo.yaml")
	data := "meta:\n  strategy_id: x\n  sginal_type: vcp\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Fatal("expected unknown-field error, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateOK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"missing signal type", func(c *Config) { c.Meta.SignalType = "" }, "meta.signal_type"},
		{"zero swing window", func(c *Config) { c.Pattern.SwingWindow = 0 }, "pattern.swing_window"},
		{"lookback too short", func(c *Config) { c.Pattern.Lookback = 10 }, "pattern.lookback"},
		{"zero ratio", func(c *Config) { c.Pattern.MinRatio12 = 0 }, "pattern.min_ratio_12"},
		{"negative bonus", func(c *Config) { c.Proximity.BreakoutBonus = -1 }, "proximity.breakout_bonus"},
		{"no distance bands", func(c *Config) { c.Proximity.DistanceBands = nil }, "proximity.distance_bands"},
		{"inverted band", func(c *Config) {
			c.Proximity.DistanceBands[0] = DistanceBand{Min: 5, Max: 0, Score: 90}
		}, "proximity.distance_bands[0]"},
		{"overlapping bands", func(c *Config) {
			c.Proximity.DistanceBands = []DistanceBand{
				{Min: 0, Max: 5, Score: 90},
				{Min: 3, Max: 8, Score: 50},
			}
		}, "proximity.distance_bands"},
		{"long window below short", func(c *Config) { c.Volume.LongWindow = 5 }, "volume.long_window"},
		{"weights not summing", func(c *Config) { c.Scoring.Weights.Flow = 0.5 }, "scoring.weights"},
		{"floor out of range", func(c *Config) { c.Scoring.ActionabilityFloor = 101 }, "scoring.actionability_floor"},
		{"no grade bands", func(c *Config) { c.Scoring.GradeBands = nil }, "scoring.grade_bands"},
		{"unsorted grade bands", func(c *Config) {
			c.Scoring.GradeBands = []contracts.GradeBand{
				{Threshold: 70, Grade: "B"},
				{Threshold: 85, Grade: "A"},
			}
		}, "scoring.grade_bands"},
		{"nameless grade", func(c *Config) {
			c.Scoring.GradeBands[0].Grade = ""
		}, "scoring.grade_bands[0].grade"},
		{"negative cooldown", func(c *Config) { c.Signals.CooldownSeconds = -1 }, "signals.cooldown_seconds"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestWeightsSum(t *testing.T) {
	w := Weights{Proximity: 0.30, Contraction: 0.25, Volume: 0.20, Trend: 0.15, Flow: 0.10}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		t.Errorf("expected sum 1.0, got %.6f", w.Sum())
	}

	m := w.Map()
	if len(m) != 5 {
		t.Errorf("expected 5 entries, got %d", len(m))
	}
	if m[contracts.ComponentProximity] != 0.30 {
		t.Errorf("expected proximity weight 0.30, got %.2f", m[contracts.ComponentProximity])
	}
}

func TestWarn(t *testing.T) {
	cfg := validConfig()
	cfg.Pattern.MinRatio12 = 0.9 // 확장 패턴 허용
	cfg.Signals.CooldownSeconds = 0
	cfg.Scoring.ActionabilityFloor = 0

	warnings := Warn(cfg)
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d", len(warnings))
	}

	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	joined := strings.Join(codes, ",")
	for _, want := range []string{"LOOSE_RATIO", "NO_COOLDOWN", "NO_FLOOR"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning %s in %s", want, joined)
		}
	}
}

func TestWarnCleanConfig(t *testing.T) {
	if warnings := Warn(validConfig()); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestConvertDetectorConfig(t *testing.T) {
	cfg := validConfig()
	dc := cfg.DetectorConfig()

	if dc.Window != 5 || dc.Lookback != 250 {
		t.Errorf("unexpected detector config: %+v", dc)
	}
	if !dc.RequireDescendingHighs || dc.RequireAscendingLows {
		t.Errorf("flags not carried over: %+v", dc)
	}
}

func TestConvertProximityConfig(t *testing.T) {
	cfg := validConfig()
	pc := cfg.ProximityConfig()

	if len(pc.DistanceBands) != 6 {
		t.Fatalf("expected 6 bands, got %d", len(pc.DistanceBands))
	}
	if pc.DistanceBands[1].Score != 85 {
		t.Errorf("expected band score 85, got %.0f", pc.DistanceBands[1].Score)
	}
	if pc.StopBufferPct != 2.0 || pc.VolumeLookback != 20 {
		t.Errorf("unexpected proximity config: %+v", pc)
	}
}

func TestConvertCompositeConfig(t *testing.T) {
	cfg := validConfig()
	cc := cfg.CompositeConfig()

	if cc.Renormalize {
		t.Error("renormalize should default off")
	}
	if cc.Weights[contracts.ComponentContraction] != 0.25 {
		t.Errorf("expected contraction weight 0.25, got %.2f", cc.Weights[contracts.ComponentContraction])
	}
	if len(cc.GradeBands) != 4 {
		t.Errorf("expected 4 grade bands, got %d", len(cc.GradeBands))
	}
}
