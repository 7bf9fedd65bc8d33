// Package jobs holds the scheduled work the screener daemon runs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/internal/engine"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// flowFactDays matches the 5-day net sums the flow scorer consumes
const flowFactDays = 5

// BarSource fetches normalized daily bars for one symbol
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) (contracts.Series, error)
}

// FlowSource fetches the named flow facts for one symbol. A nil fact
// map is a valid outcome; the flow component degrades with a warning.
type FlowSource interface {
	FlowFacts(ctx context.Context, symbol string, days int) (contracts.Facts, error)
}

// Evaluator runs the signal pipeline for one symbol
type Evaluator interface {
	Evaluate(ctx context.Context, in engine.EvalInput) (*engine.Evaluation, error)
}

// ScanJob evaluates the watchlist after the close and pushes fresh
// signals. Deduplication already happened inside the engine; every
// event that reaches the notifier is a first notification for its
// cooldown window.
// ⭐ SSOT: 종가베팅 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	bars     BarSource
	flow     FlowSource
	engine   Evaluator
	notifier contracts.Notifier

	symbols  []string
	schedule string
	lookback int // trading days of history the detector needs
	logger   *logger.Logger
}

// NewScanJob creates the daily closing-bet scan job
func NewScanJob(
	bars BarSource,
	flow FlowSource,
	eval Evaluator,
	notifier contracts.Notifier,
	symbols []string,
	schedule string,
	lookback int,
	log *logger.Logger,
) *ScanJob {
	return &ScanJob{
		bars:     bars,
		flow:     flow,
		engine:   eval,
		notifier: notifier,
		symbols:  symbols,
		schedule: schedule,
		lookback: lookback,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "closing_bet_scan"
}

// Schedule returns the configured cron expression
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run scans every watchlist symbol. Feed failures skip the symbol (the
// next run sees fresh data anyway); persistence failures from the
// engine are collected and returned so the scheduler retries the run.
func (j *ScanJob) Run(ctx context.Context) error {
	start := time.Now()
	j.logger.WithField("symbols", len(j.symbols)).Info("Starting closing-bet scan")

	// 거래일 기준 lookback을 달력 범위로 환산 (주말/휴일 여유 포함)
	to := time.Now()
	from := to.AddDate(0, 0, -(j.lookback*7/5 + 15))

	var emitted, suppressed, skipped int
	var firstErr error
	var failed int

	for _, symbol := range j.symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bars, err := j.bars.FetchDailyBars(ctx, symbol, from, to)
		if err != nil {
			j.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch bars, skipping symbol")
			skipped++
			continue
		}

		// 수급 데이터는 옵션 컴포넌트: 실패해도 평가는 진행
		var facts contracts.Facts
		if j.flow != nil {
			facts, err = j.flow.FlowFacts(ctx, symbol, flowFactDays)
			if err != nil {
				j.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch flow facts")
				facts = nil
			}
		}

		eval, err := j.engine.Evaluate(ctx, engine.EvalInput{
			Symbol: symbol,
			Bars:   bars,
			Facts:  facts,
		})
		if err != nil {
			// Lock timeout or storage failure: the whole run is retried
			j.logger.WithError(err).WithField("symbol", symbol).Error("Evaluation failed")
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if eval.Suppressed {
			suppressed++
			continue
		}
		if eval.Event == nil {
			continue
		}

		emitted++
		j.notify(ctx, eval.Event)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":    len(j.symbols),
		"emitted":    emitted,
		"suppressed": suppressed,
		"skipped":    skipped,
		"failed":     failed,
		"duration":   time.Since(start),
	}).Info("Closing-bet scan completed")

	if firstErr != nil {
		return fmt.Errorf("scan failed for %d of %d symbols: %w", failed, len(j.symbols), firstErr)
	}
	return nil
}

// notify pushes one emitted event. Delivery failures are logged, never
// propagated: the signal is already persisted and in cooldown, and a
// retried run would not resend it.
func (j *ScanJob) notify(ctx context.Context, event *contracts.SignalEvent) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.Notify(ctx, event); err != nil {
		j.logger.WithError(err).WithFields(map[string]interface{}{
			"symbol":   event.Symbol,
			"event_id": event.EventID,
		}).Error("Failed to deliver signal notification")
	}
}
