package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 공용 인터페이스 정의는 여기서만

// SignalStore is the persistence boundary for signal state and the
// append-only signal log.
type SignalStore interface {
	// GetState returns the cooldown state for a fingerprint.
	// ErrNotFound when the fingerprint has never notified.
	GetState(ctx context.Context, dedupeKey string) (*SignalState, error)

	// UpsertState creates or replaces the state row for a fingerprint
	UpsertState(ctx context.Context, state *SignalState) error

	// LogSignal appends an event to the historical log. Inserting an
	// event_id that already exists is a no-op, never an error.
	LogSignal(ctx context.Context, event *SignalEvent) error

	// RecentSignals returns up to limit events, most recent first
	RecentSignals(ctx context.Context, limit int) ([]*SignalEvent, error)
}

// Locker serializes the read-modify-write of SignalState for a single
// fingerprint. Acquire blocks up to wait and returns a release
// function, or ErrLockTimeout when the bound expires.
type Locker interface {
	Acquire(ctx context.Context, key string, wait time.Duration) (release func(), err error)
}

// Clock abstracts time for deterministic tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock
type SystemClock struct{}

// Now returns the current wall time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Notifier delivers an emitted signal to an external channel (push,
// chat, log). Failures are reported but never block emission.
type Notifier interface {
	Notify(ctx context.Context, event *SignalEvent) error
}
