package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/point10890-crypto/closing-bet-sub003/internal/api"
	"github.com/point10890-crypto/closing-bet-sub003/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `시그널 조회 전용 REST API 서버를 시작합니다.

Endpoints:
  GET /health                    - Health check
  GET /api/signals/recent        - 최근 시그널 (최신순)
  GET /api/signals/state/{key}   - 핑거프린트 쿨다운 상태

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8097`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Closing-Bet Screener: API Server ===")

	a, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	signalHandler := handlers.NewSignalHandler(a.store, a.logger)
	router := api.NewRouter(signalHandler, a.logger)
	server := api.New(a.cfg, a.logger, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("✅ API server listening on :%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	fmt.Println("\nShutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
