package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/internal/signalstore"
	"github.com/point10890-crypto/closing-bet-sub003/internal/strategyconfig"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func testStrategyConfig() *strategyconfig.Config {
	return &strategyconfig.Config{
		Meta: strategyconfig.Meta{
			StrategyID: "closing_bet_v1",
			Version:    "test",
			Exchange:   "KRX",
			Timeframe:  "D",
			SignalType: "vcp_contraction",
		},
		Pattern: strategyconfig.Pattern{
			SwingWindow:            5,
			Lookback:               250,
			MinRatio12:             1.2,
			MinRatio23:             1.2,
			RequireDescendingHighs: true,
		},
		Proximity: strategyconfig.Proximity{
			StopBufferPct:  2,
			BreakoutMaxPct: 5,
			BreakoutBonus:  10,
			VolumeLookback: 20,
			DistanceBands: []strategyconfig.DistanceBand{
				{Min: 0, Max: 5, Score: 90},
				{Min: -3, Max: 0, Score: 85},
				{Min: -8, Max: -3, Score: 70},
				{Min: -15, Max: -8, Score: 45},
				{Min: -100, Max: -15, Score: 20},
				{Min: 5, Max: 1000, Score: 30},
			},
		},
		Volume: strategyconfig.Volume{ShortWindow: 5, LongWindow: 50},
		Trend:  strategyconfig.Trend{MAWindow: 20},
		Scoring: strategyconfig.Scoring{
			ActionabilityFloor: 55,
			Weights: strategyconfig.Weights{
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
		Signals: strategyconfig.Signals{CooldownSeconds: 3600},
	}
}

// contractionSeries builds the reference setup: highs 100/95/92 at
// 60-bar spacing, lows 90/88 between them, a confirmed post-pivot low
// at 87, closing at 91 just under the pivot. Scores out at 75.5/B
// under the test weights.
func contractionSeries() contracts.Series {
	anchors := []struct {
		index int
		level float64
	}{
		{0, 80}, {60, 100}, {90, 90}, {120, 95},
		{150, 88}, {180, 92}, {210, 87}, {249, 91},
	}

	level := func(i int) float64 {
		if i <= anchors[0].index {
			return anchors[0].level
		}
		for a := 1; a < len(anchors); a++ {
			prev, cur := anchors[a-1], anchors[a]
			if i <= cur.index {
				frac := float64(i-prev.index) / float64(cur.index-prev.index)
				return prev.level + (cur.level-prev.level)*frac
			}
		}
		return anchors[len(anchors)-1].level
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, 250)
	for i := range bars {
		p := level(i)
		bars[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      p, High: p, Low: p, Close: p,
			Volume: 1000,
		}
	}
	return contracts.NewSeries(bars)
}

func testFacts() contracts.Facts {
	return contracts.Facts{
		contracts.FactForeignNet5D: 8_000_000_000,
		contracts.FactInstNet5D:    3_000_000_000,
	}
}

func newTestEmitter(cfg *strategyconfig.Config, clock contracts.Clock) (*Emitter, *signalstore.MemoryStore) {
	store := signalstore.NewMemoryStore()
	emitter := NewEmitter(cfg, store, signalstore.NewKeyedLocker(), clock, logger.NewNop())
	return emitter, store
}

func TestEvaluateEmitsSignal(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	emitter, store := newTestEmitter(testStrategyConfig(), clock)
	ctx := context.Background()

	eval, err := emitter.Evaluate(ctx, EvalInput{
		Symbol: "005930",
		Bars:   contractionSeries(),
		Facts:  testFacts(),
	})
	require.NoError(t, err)
	require.NotNil(t, eval.Event)
	assert.False(t, eval.Suppressed)

	event := eval.Event
	assert.Equal(t, "005930", event.Symbol)
	assert.Equal(t, "D", event.Timeframe)
	assert.Equal(t, "vcp_contraction", event.SignalType)
	assert.Equal(t, 92.0, event.PivotPrice)
	assert.Equal(t, 91.0, event.ClosePrice)
	assert.InDelta(t, 85.26, event.StopPrice, 1e-9)
	assert.InDelta(t, 6.31, event.RiskPct, 0.01)

	// proximity 85, contraction 85, volume 35, trend 85, flow 90
	// 가중합 = 25.5 + 21.25 + 7.0 + 12.75 + 9.0 = 75.5
	assert.Equal(t, 75.5, event.CompositeScore)
	assert.Equal(t, "B", event.Grade)
	assert.Len(t, event.Components, 5)

	key := DedupeKey("KRX", "005930", "D", 92, "vcp_contraction")
	assert.Equal(t, key, event.DedupeKey)
	assert.Equal(t, EventID(key, clock.now), event.EventID)
	assert.Contains(t, event.Summary, "B등급")

	// State row advanced the cooldown window
	state, err := store.GetState(ctx, key)
	require.NoError(t, err)
	assert.True(t, state.LastNotifiedTS.Equal(time.Unix(1000, 0).UTC()))
	assert.True(t, state.CooldownUntil.Equal(time.Unix(4600, 0).UTC()))
	assert.Equal(t, "1970-01-01", state.LastSymbolDay)

	// Logged exactly once
	events, err := store.RecentSignals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.EventID, events[0].EventID)
}

func TestEvaluateCooldownScenario(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	emitter, store := newTestEmitter(testStrategyConfig(), clock)
	ctx := context.Background()

	in := EvalInput{Symbol: "005930", Bars: contractionSeries(), Facts: testFacts()}
	key := DedupeKey("KRX", "005930", "D", 92, "vcp_contraction")

	// t=1000: 최초 알림, cooldown_until=4600
	eval, err := emitter.Evaluate(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, eval.Event)
	firstID := eval.Event.EventID

	// t=2000: 쿨다운 구간 안, 억제
	clock.now = time.Unix(2000, 0).UTC()
	eval, err = emitter.Evaluate(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, eval.Event)
	assert.True(t, eval.Suppressed)
	assert.Contains(t, eval.Reason, "cooldown active")

	// Suppression kept the composite for diagnostics but wrote nothing
	require.NotNil(t, eval.Composite)
	assert.Equal(t, 75.5, eval.Composite.Score)

	state, err := store.GetState(ctx, key)
	require.NoError(t, err)
	assert.True(t, state.LastNotifiedTS.Equal(time.Unix(1000, 0).UTC()))

	events, err := store.RecentSignals(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// t=5000: 쿨다운 만료, 재알림
	clock.now = time.Unix(5000, 0).UTC()
	eval, err = emitter.Evaluate(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, eval.Event)
	assert.NotEqual(t, firstID, eval.Event.EventID)

	state, err = store.GetState(ctx, key)
	require.NoError(t, err)
	assert.True(t, state.CooldownUntil.Equal(time.Unix(8600, 0).UTC()))

	events, err = store.RecentSignals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eval.Event.EventID, events[0].EventID)
}

func TestEvaluateNoCandidate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	emitter, store := newTestEmitter(testStrategyConfig(), clock)
	ctx := context.Background()

	// 구조 없는 횡보 시리즈
	bars := make([]contracts.Bar, 100)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}

	eval, err := emitter.Evaluate(ctx, EvalInput{Symbol: "005930", Bars: contracts.NewSeries(bars)})
	require.NoError(t, err)
	assert.Nil(t, eval.Event)
	assert.Nil(t, eval.Candidate)
	assert.False(t, eval.Suppressed)
	assert.Equal(t, "no contraction candidate", eval.Reason)

	events, err := store.RecentSignals(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEvaluateBelowFloor(t *testing.T) {
	cfg := testStrategyConfig()
	cfg.Scoring.ActionabilityFloor = 99

	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	emitter, store := newTestEmitter(cfg, clock)
	ctx := context.Background()

	eval, err := emitter.Evaluate(ctx, EvalInput{
		Symbol: "005930",
		Bars:   contractionSeries(),
		Facts:  testFacts(),
	})
	require.NoError(t, err)
	assert.Nil(t, eval.Event)
	assert.False(t, eval.Suppressed)
	assert.Contains(t, eval.Reason, "below actionability floor")

	// 점수는 계산되었지만 어떤 상태도 기록되지 않음
	require.NotNil(t, eval.Composite)
	assert.Equal(t, 75.5, eval.Composite.Score)

	key := DedupeKey("KRX", "005930", "D", 92, "vcp_contraction")
	_, err = store.GetState(ctx, key)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestEvaluateMissingFactsDegrades(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	emitter, _ := newTestEmitter(testStrategyConfig(), clock)
	ctx := context.Background()

	// Flow facts absent: component degrades to a warning, composite
	// excludes its weight from numerator and stated total.
	eval, err := emitter.Evaluate(ctx, EvalInput{
		Symbol: "005930",
		Bars:   contractionSeries(),
	})
	require.NoError(t, err)
	require.NotNil(t, eval.Event)

	assert.Equal(t, 66.5, eval.Event.CompositeScore)
	assert.Equal(t, []string{contracts.ComponentFlow}, eval.Composite.Excluded())
	assert.InDelta(t, 0.90, eval.Composite.WeightTotal, 1e-9)

	var flow *contracts.ComponentScore
	for i := range eval.Event.Components {
		if eval.Event.Components[i].Name == contracts.ComponentFlow {
			flow = &eval.Event.Components[i]
		}
	}
	require.NotNil(t, flow)
	assert.False(t, flow.Available)
	assert.NotEmpty(t, flow.Warning)
}

func TestEvaluateExplicitEventTS(t *testing.T) {
	clock := &fakeClock{now: time.Unix(9_999_999, 0).UTC()}
	emitter, _ := newTestEmitter(testStrategyConfig(), clock)

	// 백테스트 리플레이: 명시된 시각이 클럭을 대신한다
	ts := time.Unix(1000, 0).UTC()
	eval, err := emitter.Evaluate(context.Background(), EvalInput{
		Symbol:  "005930",
		Bars:    contractionSeries(),
		Facts:   testFacts(),
		EventTS: ts,
	})
	require.NoError(t, err)
	require.NotNil(t, eval.Event)
	assert.True(t, eval.Event.EventTS.Equal(ts))
	assert.Equal(t, EventID(eval.Event.DedupeKey, ts), eval.Event.EventID)
}

func TestEvaluateLockTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	locker := signalstore.NewKeyedLocker()
	store := signalstore.NewMemoryStore()
	emitter := NewEmitter(testStrategyConfig(), store, locker, clock, logger.NewNop()).
		WithLockWait(30 * time.Millisecond)

	// 다른 평가가 같은 핑거프린트 락을 쥐고 있는 상황
	key := DedupeKey("KRX", "005930", "D", 92, "vcp_contraction")
	release, err := locker.Acquire(context.Background(), key, time.Second)
	require.NoError(t, err)
	defer release()

	eval, err := emitter.Evaluate(context.Background(), EvalInput{
		Symbol: "005930",
		Bars:   contractionSeries(),
		Facts:  testFacts(),
	})
	assert.Nil(t, eval)
	assert.ErrorIs(t, err, contracts.ErrLockTimeout)

	// 락 타임아웃은 시그널을 남기지 않는다: 다음 틱에서 재시도
	events, err := store.RecentSignals(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEvaluateIdempotentReplay(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0).UTC()}
	cfg := testStrategyConfig()
	cfg.Signals.CooldownSeconds = 0 // 쿨다운 없이 재실행

	emitter, store := newTestEmitter(cfg, clock)
	ctx := context.Background()

	in := EvalInput{Symbol: "005930", Bars: contractionSeries(), Facts: testFacts()}

	// Same timestamp, same fingerprint: the event id collides and the
	// log keeps exactly one row.
	eval1, err := emitter.Evaluate(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, eval1.Event)

	eval2, err := emitter.Evaluate(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, eval2.Event)
	assert.Equal(t, eval1.Event.EventID, eval2.Event.EventID)

	events, err := store.RecentSignals(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
