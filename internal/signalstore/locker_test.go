package signalstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/config"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/redis"
)

func TestKeyedLocker_AcquireRelease(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()

	// 해제 후 재획득 가능
	release, err = locker.Acquire(ctx, "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestKeyedLocker_ContentionTimesOut(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = locker.Acquire(ctx, "fp-1", 50*time.Millisecond)
	assert.ErrorIs(t, err, contracts.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestKeyedLocker_IndependentKeys(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	release1, err := locker.Acquire(ctx, "fp-1", 50*time.Millisecond)
	require.NoError(t, err)
	defer release1()

	// 다른 핑거프린트는 막히지 않음
	release2, err := locker.Acquire(ctx, "fp-2", 50*time.Millisecond)
	require.NoError(t, err)
	release2()
}

func TestKeyedLocker_ReleaseIdempotent(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()
	release()

	// 이중 해제가 슬롯을 두 개 만들면 안 됨: 하나만 획득 가능해야 한다
	release, err = locker.Acquire(ctx, "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	defer release()

	_, err = locker.Acquire(ctx, "fp-1", 30*time.Millisecond)
	assert.ErrorIs(t, err, contracts.ErrLockTimeout)
}

func TestKeyedLocker_ContextCancel(t *testing.T) {
	locker := NewKeyedLocker()

	release, err := locker.Acquire(context.Background(), "fp-1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := locker.Acquire(ctx, "fp-1", 5*time.Second)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after context cancel")
	}
}

func TestKeyedLocker_Serializes(t *testing.T) {
	locker := NewKeyedLocker()
	ctx := context.Background()

	var active int32
	var overlaps int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				release, err := locker.Acquire(ctx, "fp-shared", 5*time.Second)
				if err != nil {
					t.Error(err)
					return
				}
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				atomic.AddInt32(&active, -1)
				release()
			}
		}()
	}

	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlaps), "lock admitted more than one holder")
}

func TestRedisLocker_DisabledClient(t *testing.T) {
	// Redis 미사용 환경에서는 락이 항상 즉시 성공한다
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	locker := NewRedisLocker(client, 30*time.Second, logger.NewNop())

	release, err := locker.Acquire(context.Background(), "fp-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()
	release()
}
