package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 적용",
	Long: `sql/postgres/ 아래 마이그레이션을 사전순으로 적용합니다.

Example:
  go run ./cmd/screener migrate
  go run ./cmd/screener migrate --dir sql/postgres`,
	RunE: runMigrations,
}

var migrationsDir string

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "sql/postgres", "마이그레이션 디렉터리")
}

func runMigrations(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Closing-Bet Screener: Migrate ===")

	a, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	if err := a.db.ApplyMigrations(cmd.Context(), migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	fmt.Println("✅ Migrations applied")
	return nil
}
