package signalstore

import (
	"context"
	"sort"
	"sync"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// MemoryStore implements contracts.SignalStore in memory. Used by
// tests and by dry-run scans that must not touch the database.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]contracts.SignalState
	events []contracts.SignalEvent
	seen   map[string]struct{} // event_id dedupe
}

var _ contracts.SignalStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory signal store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]contracts.SignalState),
		seen:   make(map[string]struct{}),
	}
}

// GetState retrieves the cooldown state for a fingerprint
func (s *MemoryStore) GetState(ctx context.Context, dedupeKey string) (*contracts.SignalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[dedupeKey]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	out := st
	return &out, nil
}

// UpsertState creates or replaces the state row for a fingerprint
func (s *MemoryStore) UpsertState(ctx context.Context, state *contracts.SignalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.DedupeKey] = *state
	return nil
}

// LogSignal appends an event; duplicate event IDs are dropped
func (s *MemoryStore) LogSignal(ctx context.Context, event *contracts.SignalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[event.EventID]; dup {
		return nil
	}
	s.seen[event.EventID] = struct{}{}

	ev := *event
	ev.Components = append([]contracts.ComponentScore(nil), event.Components...)
	s.events = append(s.events, ev)
	return nil
}

// RecentSignals returns up to limit events, most recent first
func (s *MemoryStore) RecentSignals(ctx context.Context, limit int) ([]*contracts.SignalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}

	sorted := make([]contracts.SignalEvent, len(s.events))
	copy(sorted, s.events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventTS.After(sorted[j].EventTS)
	})

	if limit > len(sorted) {
		limit = len(sorted)
	}

	out := make([]*contracts.SignalEvent, limit)
	for i := 0; i < limit; i++ {
		ev := sorted[i]
		out[i] = &ev
	}
	return out, nil
}
