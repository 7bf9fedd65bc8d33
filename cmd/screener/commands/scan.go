package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/point10890-crypto/closing-bet-sub003/internal/scheduler/jobs"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "워치리스트 1회 스캔",
	Long: `워치리스트를 한 번 평가하고 새 시그널을 발행합니다.

이 명령어는:
- 심볼별 일봉/수급 데이터 수집
- 수축 패턴 탐지 + 종합 스코어링
- 쿨다운을 통과한 시그널만 발행/알림

심볼을 인자로 주지 않으면 SCAN_SYMBOLS 워치리스트를 사용합니다.

Example:
  go run ./cmd/screener scan 005930 000660
  go run ./cmd/screener scan`,
	RunE: runScan,
}

var scanTimeout time.Duration

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Minute, "전체 스캔 타임아웃")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Closing-Bet Screener: Scan ===")

	a, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	symbols, err := a.watchlist(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	notifier, err := a.notifier(ctx)
	if err != nil {
		return err
	}

	job := jobs.NewScanJob(
		a.naver, a.naver, a.emitter, notifier,
		symbols,
		a.cfg.Scheduler.ScanSpec,
		a.strategy.Pattern.Lookback,
		a.logger,
	)

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	fmt.Printf("✅ Scan completed (%d symbols)\n", len(symbols))
	return nil
}
