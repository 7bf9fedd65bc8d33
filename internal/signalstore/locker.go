package signalstore

import (
	"context"
	"sync"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/redis"
)

// KeyedLocker implements contracts.Locker for a single process: one
// semaphore per fingerprint, bounded wait, ErrLockTimeout on expiry.
type KeyedLocker struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

var _ contracts.Locker = (*KeyedLocker)(nil)

// NewKeyedLocker creates an in-process fingerprint locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		sems: make(map[string]chan struct{}),
	}
}

// Acquire blocks up to wait for the key's semaphore. The returned
// release function is safe to call more than once.
func (l *KeyedLocker) Acquire(ctx context.Context, key string, wait time.Duration) (func(), error) {
	sem := l.sem(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-timer.C:
		return nil, contracts.ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.sems[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[key] = sem
	}
	return sem
}

// RedisLocker implements contracts.Locker across processes by polling
// the single-attempt redis lock until the wait bound expires. Used
// when independent scheduled runs may evaluate the same symbol.
type RedisLocker struct {
	lock   *redis.Lock
	ttl    time.Duration
	poll   time.Duration
	logger *logger.Logger
}

var _ contracts.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a cross-process fingerprint locker. The TTL
// caps how long a crashed holder can block others.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		lock:   redis.NewLock(client, "signal"),
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		logger: log,
	}
}

// Acquire polls the distributed lock until it succeeds or the wait
// bound expires.
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)

	for {
		token, ok, err := l.lock.Acquire(ctx, key, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			release := func() {
				once.Do(func() {
					// The evaluation context may already be done;
					// releasing must still reach redis.
					rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := l.lock.Release(rctx, key, token); err != nil {
						l.logger.WithError(err).WithField("key", key).Warn("Failed to release signal lock")
					}
				})
			}
			return release, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, contracts.ErrLockTimeout
		}

		pause := l.poll
		if remaining < pause {
			pause = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pause):
		}
	}
}
