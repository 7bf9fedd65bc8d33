package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/redis"
)

// LastPriceCache holds the freshest tick per symbol in memory and
// mirrors it to redis so scan processes can read the feed's prices.
// ⭐ SSOT: 실시간 최종가는 이 캐시에서만 조회
type LastPriceCache struct {
	mu    sync.RWMutex
	ticks map[string]PriceTick

	remote *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewLastPriceCache creates a cache backed by the given redis client.
// A disabled client degrades to memory-only operation.
func NewLastPriceCache(client *redis.Client, log *logger.Logger) *LastPriceCache {
	return &LastPriceCache{
		ticks:  make(map[string]PriceTick),
		remote: redis.NewCache(client, "screener"),
		ttl:    redis.TTLShort,
		logger: log,
	}
}

// Update records a tick unless a fresher one is already held.
// Returns whether the tick was accepted.
func (c *LastPriceCache) Update(ctx context.Context, tick PriceTick) bool {
	c.mu.Lock()
	existing, ok := c.ticks[tick.Symbol]
	if ok && tick.Timestamp.Before(existing.Timestamp) {
		c.mu.Unlock()
		return false
	}
	c.ticks[tick.Symbol] = tick
	c.mu.Unlock()

	// 레디스 반영 실패는 피드를 멈출 이유가 아님
	if err := c.remote.Set(ctx, redis.LastPriceKey(tick.Symbol), tick, c.ttl); err != nil {
		c.logger.WithError(err).WithField("symbol", tick.Symbol).Warn("Failed to mirror tick to redis")
	}
	return true
}

// Get returns the freshest known tick for a symbol, consulting redis
// when this process has not seen the symbol yet.
func (c *LastPriceCache) Get(ctx context.Context, symbol string) (PriceTick, bool) {
	c.mu.RLock()
	tick, ok := c.ticks[symbol]
	c.mu.RUnlock()
	if ok {
		return tick, true
	}

	var remote PriceTick
	found, err := c.remote.Get(ctx, redis.LastPriceKey(symbol), &remote)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to read tick from redis")
		return PriceTick{}, false
	}
	if !found {
		return PriceTick{}, false
	}

	c.mu.Lock()
	if held, ok := c.ticks[symbol]; !ok || remote.Timestamp.After(held.Timestamp) {
		c.ticks[symbol] = remote
	}
	c.mu.Unlock()
	return remote, true
}

// Fresh reports whether a tick is recent enough to price against.
func (c *LastPriceCache) Fresh(tick PriceTick, now time.Time) bool {
	return tick.Age(now) <= c.ttl
}

// Symbols lists symbols currently held in memory.
func (c *LastPriceCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.ticks))
	for s := range c.ticks {
		out = append(out, s)
	}
	return out
}
