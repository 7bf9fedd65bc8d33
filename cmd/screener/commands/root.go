package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "종가베팅 VCP 스크리너",
	Long: `Closing-bet VCP screener CLI

수축 패턴 탐지 → 컴포넌트 스코어링 → 종합 등급 → 중복 억제 발행
파이프라인을 일봉 워치리스트에 대해 실행합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener scan 005930 000660
  go run ./cmd/screener schedule
  go run ./cmd/screener api
  go run ./cmd/screener signals --limit 10
  go run ./cmd/screener migrate`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "strategy config file (default from STRATEGY_CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
