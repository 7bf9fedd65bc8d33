// Package engine orchestrates one full screener evaluation: pattern
// detection, component scoring, composite grading, and the locked
// read-modify-write of the dedupe state that decides whether the
// result becomes a notification.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/internal/pattern"
	"github.com/point10890-crypto/closing-bet-sub003/internal/scoring"
	"github.com/point10890-crypto/closing-bet-sub003/internal/strategyconfig"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// How long one evaluation waits for the fingerprint lock before
// failing loudly. A timed-out run is retried on the next scheduled
// tick, never treated as "no signal".
const defaultLockWait = 5 * time.Second

// EvalInput is everything one evaluation needs. The store, the clock
// and all configuration live on the Emitter; nothing is read from
// process-wide state.
type EvalInput struct {
	Symbol string
	Bars   contracts.Series
	// Facts carries flow sums and other non-bar inputs
	Facts contracts.Facts
	// EventTS stamps the evaluation; zero means "now". Backtests pass
	// the bar date so replayed days produce their historical ids.
	EventTS time.Time
}

// Evaluation is the full outcome of one run, kept even when no event
// is emitted so callers can log why a symbol did not notify.
type Evaluation struct {
	Symbol    string
	Candidate *contracts.ContractionCandidate
	Proximity contracts.ProximityAssessment
	Composite *contracts.CompositeResult

	// Event is non-nil only for a fresh notification
	Event *contracts.SignalEvent

	// Suppressed marks a setup that scored past the floor but sits
	// inside its cooldown window. 쿨다운 억제는 에러가 아님
	Suppressed bool
	Reason     string
}

// Emitter runs the closing-bet pipeline for one symbol at a time.
// Evaluations for different symbols may run fully in parallel; two
// evaluations that resolve to the same fingerprint are serialized by
// the Locker around the state read-modify-write.
// ⭐ SSOT: 시그널 발행 판정은 여기서만
type Emitter struct {
	meta     strategyconfig.Meta
	floor    float64
	cooldown time.Duration
	lockWait time.Duration
	loc      *time.Location

	detector  *pattern.Detector
	proxCfg   pattern.ProximityConfig
	scorers   []scoring.Scorer
	composite *scoring.Composite

	store  contracts.SignalStore
	locker contracts.Locker
	clock  contracts.Clock
	logger *logger.Logger
}

// NewEmitter wires the pipeline from a validated strategy config.
// Config validation already ran at load time; nothing here re-checks
// weights or bands.
func NewEmitter(
	cfg *strategyconfig.Config,
	store contracts.SignalStore,
	locker contracts.Locker,
	clock contracts.Clock,
	log *logger.Logger,
) *Emitter {
	return &Emitter{
		meta:     cfg.Meta,
		floor:    cfg.Scoring.ActionabilityFloor,
		cooldown: cfg.Signals.Cooldown(),
		lockWait: defaultLockWait,
		loc:      kstLocation(),

		detector: pattern.NewDetector(cfg.DetectorConfig(), log),
		proxCfg:  cfg.ProximityConfig(),
		scorers: []scoring.Scorer{
			scoring.NewContractionScorer(log),
			scoring.NewVolumeScorer(cfg.Volume.ShortWindow, cfg.Volume.LongWindow, log),
			scoring.NewTrendScorer(cfg.Trend.MAWindow, log),
			scoring.NewFlowScorer(log),
		},
		composite: scoring.NewComposite(cfg.CompositeConfig(), log),

		store:  store,
		locker: locker,
		clock:  clock,
		logger: log,
	}
}

// WithLockWait overrides the bounded wait for the fingerprint lock
func (e *Emitter) WithLockWait(d time.Duration) *Emitter {
	if d > 0 {
		e.lockWait = d
	}
	return e
}

// Evaluate runs the full pipeline for one symbol. It returns a nil
// error for every analytical outcome, including "no candidate" and
// "suppressed by cooldown"; errors are reserved for the persistence
// boundary (lock timeout, storage failure), which the scheduler must
// retry rather than swallow.
func (e *Emitter) Evaluate(ctx context.Context, in EvalInput) (*Evaluation, error) {
	eval := &Evaluation{Symbol: in.Symbol}

	// 1. Pattern detection
	cand := e.detector.Detect(in.Symbol, in.Bars)
	if cand == nil {
		eval.Reason = "no contraction candidate"
		return eval, nil
	}
	eval.Candidate = cand

	// 2. Component scores. Proximity also yields the stop plan the
	// event will carry.
	proxScore, assessment := pattern.AssessProximity(cand, in.Bars, e.proxCfg)
	eval.Proximity = assessment

	components := []contracts.ComponentScore{proxScore}
	scoreIn := scoring.Inputs{
		Symbol:    in.Symbol,
		Bars:      in.Bars,
		Facts:     in.Facts,
		Candidate: cand,
	}
	for _, s := range e.scorers {
		components = append(components, s.Score(scoreIn))
	}

	// 3. Composite
	result := e.composite.Score(in.Symbol, components)
	eval.Composite = &result

	// 4. Actionability floor. An invalidated setup lands here too:
	// its proximity score is zero, which drags the composite down.
	if result.Score < e.floor {
		eval.Reason = fmt.Sprintf("composite %.1f below actionability floor %.1f", result.Score, e.floor)
		return eval, nil
	}

	// 5. Fingerprint and event timestamp
	eventTS := in.EventTS
	if eventTS.IsZero() {
		eventTS = e.clock.Now()
	}
	key := DedupeKey(e.meta.Exchange, in.Symbol, e.meta.Timeframe, cand.PivotPrice, e.meta.SignalType)

	// 6. Fingerprint lock around the state read-modify-write
	release, err := e.locker.Acquire(ctx, key, e.lockWait)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire signal lock for %s: %w", key, err)
	}
	defer release()

	state, err := e.store.GetState(ctx, key)
	if err != nil && err != contracts.ErrNotFound {
		return nil, fmt.Errorf("failed to load signal state for %s: %w", key, err)
	}

	// 7. Cooldown check. Suppression writes nothing: no new row, no
	// event, the computed composite stays available for diagnostics.
	if state.InCooldown(eventTS) {
		eval.Suppressed = true
		eval.Reason = fmt.Sprintf("cooldown active until %s", state.CooldownUntil.Format(time.RFC3339))

		e.logger.WithFields(map[string]interface{}{
			"symbol":         in.Symbol,
			"dedupe_key":     key,
			"cooldown_until": state.CooldownUntil,
			"score":          result.Score,
		}).Debug("Signal suppressed by cooldown")

		return eval, nil
	}

	// 8. Emit: log the event, then advance the cooldown window
	event := e.buildEvent(in, cand, assessment, result, key, eventTS)

	if err := e.store.LogSignal(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to log signal %s: %w", event.EventID, err)
	}
	if err := e.store.UpsertState(ctx, &contracts.SignalState{
		DedupeKey:      key,
		LastNotifiedTS: eventTS,
		CooldownUntil:  eventTS.Add(e.cooldown),
		LastSymbolDay:  contracts.TradingDay(eventTS, e.loc),
	}); err != nil {
		return nil, fmt.Errorf("failed to save signal state for %s: %w", key, err)
	}

	eval.Event = event

	e.logger.WithFields(map[string]interface{}{
		"symbol": in.Symbol,
		"score":  result.Score,
		"grade":  result.Grade,
		"pivot":  cand.PivotPrice,
		"status": string(assessment.Status),
	}).Info("Signal emitted")

	return eval, nil
}

func (e *Emitter) buildEvent(
	in EvalInput,
	cand *contracts.ContractionCandidate,
	assessment contracts.ProximityAssessment,
	result contracts.CompositeResult,
	key string,
	eventTS time.Time,
) *contracts.SignalEvent {
	last, _ := in.Bars.Last()

	return &contracts.SignalEvent{
		EventID:        EventID(key, eventTS),
		Symbol:         in.Symbol,
		Timeframe:      e.meta.Timeframe,
		EventTS:        eventTS,
		SignalType:     e.meta.SignalType,
		CompositeScore: result.Score,
		Grade:          result.Grade,
		PivotPrice:     cand.PivotPrice,
		ClosePrice:     last.Close,
		StopPrice:      assessment.StopPrice,
		RiskPct:        assessment.RiskPct,
		Components:     result.Components,
		DedupeKey:      key,
		Summary:        buildSummary(in.Symbol, result, cand, assessment),
	}
}

// buildSummary renders the one-line operator message carried on the
// event and pushed to notification channels.
func buildSummary(symbol string, result contracts.CompositeResult, cand *contracts.ContractionCandidate, assessment contracts.ProximityAssessment) string {
	action := "피벗 주시"
	if assessment.Status == contracts.TradeStatusBreakout {
		action = "돌파 진행"
		if assessment.VolumeConfirmed {
			action = "거래량 동반 돌파"
		}
	}

	return fmt.Sprintf("%s 종가베팅 후보 (%s등급 %.1f점) 피벗 %.0f / 손절 %.0f (리스크 %.1f%%) %s",
		symbol, result.Grade, result.Score,
		cand.PivotPrice, assessment.StopPrice, assessment.RiskPct, action)
}

// kstLocation is the trading-day calendar for KRX state rows. Falls
// back to a fixed +09:00 zone when the host has no tzdata.
func kstLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}
