package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/internal/engine"
	"github.com/point10890-crypto/closing-bet-sub003/internal/feed/naver"
	"github.com/point10890-crypto/closing-bet-sub003/internal/notify"
	"github.com/point10890-crypto/closing-bet-sub003/internal/signalstore"
	"github.com/point10890-crypto/closing-bet-sub003/internal/strategyconfig"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/config"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/database"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/httputil"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/redis"
)

// Redis fingerprint locks outlive any single evaluation but never a
// crashed holder for long.
const signalLockTTL = 30 * time.Second

// 포털 차단 방지용 기본 호출 속도
const (
	naverRPS   = 3
	naverBurst = 1
)

// app bundles the wired dependencies commands share
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	logger   *logger.Logger
	db       *database.DB
	redis    *redis.Client
	store    contracts.SignalStore
	emitter  *engine.Emitter
	naver    *naver.Client
	http     *httputil.Client
}

// httpClient returns the shared rate-limited HTTP client
func (a *app) httpClient() *httputil.Client {
	return a.http
}

// initApp loads config, validates the strategy file, and wires the
// engine against postgres. Strategy validation failures are fatal
// here, before any evaluation runs.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	strategyPath := cfg.Strategy.Path
	if configFile != "" {
		strategyPath = configFile
	}

	strategy, _, err := strategyconfig.Load(strategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config %s: %w", strategyPath, err)
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy":    strategy.Meta.StrategyID,
		"version":     strategy.Meta.Version,
		"config_hash": hash[:12],
	}).Info("Strategy config loaded")

	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	store := signalstore.NewPostgresStore(db.Pool)

	// 멀티 프로세스 배포에서는 레디스 락, 아니면 프로세스 내 락
	var locker contracts.Locker
	if redisClient.Enabled() {
		locker = signalstore.NewRedisLocker(redisClient, signalLockTTL, log)
	} else {
		locker = signalstore.NewKeyedLocker()
	}

	emitter := engine.NewEmitter(strategy, store, locker, contracts.SystemClock{}, log).
		WithLockWait(cfg.Strategy.LockWait)

	httpClient := httputil.New(log).WithLocalRateLimit(naverRPS, naverBurst)
	naverClient := naver.NewClient(httpClient, log)

	return &app{
		cfg:      cfg,
		strategy: strategy,
		logger:   log,
		db:       db,
		redis:    redisClient,
		store:    store,
		emitter:  emitter,
		naver:    naverClient,
		http:     httpClient,
	}, nil
}

// Close releases held connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// notifier returns the configured delivery channel: FCM when enabled,
// otherwise the structured log.
func (a *app) notifier(ctx context.Context) (contracts.Notifier, error) {
	if !a.cfg.Notify.Enabled {
		return notify.NewLogNotifier(a.logger), nil
	}

	fcm, err := notify.NewFCMNotifier(ctx, a.cfg.Notify, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init FCM notifier: %w", err)
	}
	return fcm, nil
}

// watchlist resolves the symbols to scan: CLI args win, then the
// configured watchlist.
func (a *app) watchlist(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.Scheduler.Symbols) > 0 {
		return a.cfg.Scheduler.Symbols, nil
	}
	return nil, fmt.Errorf("no symbols: pass them as arguments or set SCAN_SYMBOLS")
}
