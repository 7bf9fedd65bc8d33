package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock provides a single-attempt distributed lock (SET NX PX).
// Callers that need a bounded wait poll Acquire until their deadline.
// ⭐ SSOT: 분산 락은 여기서만
type Lock struct {
	client *Client
	prefix string
}

// NewLock creates a new lock helper
func NewLock(client *Client, prefix string) *Lock {
	return &Lock{
		client: client,
		prefix: prefix,
	}
}

// Acquire attempts to take the lock once. On success it returns a
// release token. ok=false means someone else holds the lock.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if !l.client.Enabled() {
		// Without Redis there is nothing to coordinate against.
		return "", true, nil
	}

	token, err := newToken()
	if err != nil {
		return "", false, err
	}

	fullKey := fmt.Sprintf("%s:lock:%s", l.prefix, key)
	ok, err := l.client.Redis().SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock acquire failed: %w", err)
	}

	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if the token still matches. A lock that
// expired and was re-acquired by someone else is left alone.
func (l *Lock) Release(ctx context.Context, key string, token string) error {
	if !l.client.Enabled() || token == "" {
		return nil
	}

	fullKey := fmt.Sprintf("%s:lock:%s", l.prefix, key)

	// Compare-and-delete must be atomic
	script := redis.NewScript(`
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`)

	if err := script.Run(ctx, l.client.Redis(), []string{fullKey}, token).Err(); err != nil {
		return fmt.Errorf("lock release failed: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("lock token generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
