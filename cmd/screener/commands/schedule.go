package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/point10890-crypto/closing-bet-sub003/internal/feed/realtime"
	"github.com/point10890-crypto/closing-bet-sub003/internal/scheduler"
	"github.com/point10890-crypto/closing-bet-sub003/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "스케줄러 데몬 시작",
	Long: `스캔 작업을 cron 스케줄로 실행하는 데몬을 시작합니다.

이 명령어는:
- SCAN_CRON 스케줄로 종가베팅 스캔 등록 (기본: 평일 15:40 KST)
- KIS 키가 있으면 실시간 체결가 피드를 켜서 최종가 캐시 유지
- Ctrl+C로 종료

Example:
  go run ./cmd/screener schedule`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Closing-Bet Screener: Scheduler ===")

	a, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	symbols, err := a.watchlist(nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	notifier, err := a.notifier(ctx)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(a.cfg.Scheduler.TimeZone)
	if err != nil {
		return fmt.Errorf("load scheduler timezone %s: %w", a.cfg.Scheduler.TimeZone, err)
	}

	sched := scheduler.New(a.logger, loc)
	if err := sched.AddJob(jobs.NewScanJob(
		a.naver, a.naver, a.emitter, notifier,
		symbols,
		a.cfg.Scheduler.ScanSpec,
		a.strategy.Pattern.Lookback,
		a.logger,
	)); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}

	// 실시간 피드는 옵션: 키가 없으면 일봉만으로 동작
	if sub := startTickFeed(ctx, a, symbols, loc); sub != nil {
		defer sub.Disconnect()
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.JobNames() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

// startTickFeed connects the KIS tick stream when credentials exist.
// Feed failures degrade to daily-bar-only operation, never abort the
// daemon.
func startTickFeed(ctx context.Context, a *app, symbols []string, loc *time.Location) *realtime.Subscriber {
	if a.cfg.KIS.AppKey == "" || a.cfg.KIS.AppSecret == "" {
		a.logger.Info("KIS credentials not set, tick feed disabled")
		return nil
	}

	cache := realtime.NewLastPriceCache(a.redis, a.logger)
	sub := realtime.NewSubscriber(a.cfg.KIS, a.httpClient(), cache, loc, a.logger)

	if err := sub.Connect(ctx); err != nil {
		a.logger.WithError(err).Warn("Tick feed connect failed, continuing without live prices")
		return nil
	}
	if err := sub.Subscribe(symbols...); err != nil {
		a.logger.WithError(err).Warn("Tick feed subscribe failed")
	}

	return sub
}
