package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "최근 시그널 조회",
	Long: `발행된 시그널을 최신순으로 출력합니다.

Example:
  go run ./cmd/screener signals
  go run ./cmd/screener signals --limit 50`,
	RunE: showSignals,
}

var signalsLimit int

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().IntVar(&signalsLimit, "limit", 20, "조회 건수")
}

func showSignals(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	events, err := a.store.RecentSignals(cmd.Context(), signalsLimit)
	if err != nil {
		return fmt.Errorf("list signals: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No signals recorded")
		return nil
	}

	fmt.Printf("Recent signals (%d):\n\n", len(events))
	for _, ev := range events {
		fmt.Printf("📈 %s  %s  %s등급 %.1f점\n", ev.EventTS.Format("2006-01-02 15:04"), ev.Symbol, ev.Grade, ev.CompositeScore)
		fmt.Printf("   피벗 %.0f / 손절 %.0f (리스크 %.1f%%)\n", ev.PivotPrice, ev.StopPrice, ev.RiskPct)
		fmt.Printf("   %s\n\n", ev.DedupeKey)
	}

	return nil
}
