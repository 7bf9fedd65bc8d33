// Package signalstore persists signal cooldown state and the
// append-only signal log, and provides the per-fingerprint locks that
// keep concurrent evaluations from double-notifying.
package signalstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// PostgresStore implements contracts.SignalStore on pgx.
// ⭐ SSOT: 시그널 영속화는 여기서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ contracts.SignalStore = (*PostgresStore)(nil)

// NewPostgresStore creates a new postgres-backed signal store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// GetState retrieves the cooldown state for a fingerprint
func (s *PostgresStore) GetState(ctx context.Context, dedupeKey string) (*contracts.SignalState, error) {
	query := `
		SELECT dedupe_key, last_notified_ts, cooldown_until_ts, last_symbol_day, updated_at
		FROM screener.signal_state
		WHERE dedupe_key = $1
	`

	var st contracts.SignalState
	err := s.pool.QueryRow(ctx, query, dedupeKey).Scan(
		&st.DedupeKey, &st.LastNotifiedTS, &st.CooldownUntil, &st.LastSymbolDay, &st.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal state: %w", err)
	}

	return &st, nil
}

// UpsertState creates or replaces the state row for a fingerprint
func (s *PostgresStore) UpsertState(ctx context.Context, state *contracts.SignalState) error {
	query := `
		INSERT INTO screener.signal_state (
			dedupe_key, last_notified_ts, cooldown_until_ts, last_symbol_day, updated_at
		) VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (dedupe_key) DO UPDATE SET
			last_notified_ts = EXCLUDED.last_notified_ts,
			cooldown_until_ts = EXCLUDED.cooldown_until_ts,
			last_symbol_day = EXCLUDED.last_symbol_day,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		state.DedupeKey, state.LastNotifiedTS, state.CooldownUntil, state.LastSymbolDay,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert signal state: %w", err)
	}

	return nil
}

// LogSignal appends an event to the historical log. The primary key
// on event_id makes replays idempotent: inserting the same event
// twice leaves exactly one row.
func (s *PostgresStore) LogSignal(ctx context.Context, event *contracts.SignalEvent) error {
	componentsJSON, err := json.Marshal(event.Components)
	if err != nil {
		return fmt.Errorf("failed to marshal components: %w", err)
	}

	query := `
		INSERT INTO screener.signals (
			event_id, symbol, timeframe, event_ts, signal_type,
			composite_score, grade, pivot_price, close_price, stop_price,
			risk_pct, components, dedupe_key, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err = s.pool.Exec(ctx, query,
		event.EventID, event.Symbol, event.Timeframe, event.EventTS, event.SignalType,
		event.CompositeScore, event.Grade, event.PivotPrice, event.ClosePrice, event.StopPrice,
		event.RiskPct, componentsJSON, event.DedupeKey, event.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to log signal: %w", err)
	}

	return nil
}

// RecentSignals returns up to limit events, most recent first
func (s *PostgresStore) RecentSignals(ctx context.Context, limit int) ([]*contracts.SignalEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT event_id, symbol, timeframe, event_ts, signal_type,
		       composite_score, grade, pivot_price, close_price, stop_price,
		       risk_pct, components, dedupe_key, summary
		FROM screener.signals
		ORDER BY event_ts DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	var events []*contracts.SignalEvent
	for rows.Next() {
		var ev contracts.SignalEvent
		var componentsJSON []byte

		if err := rows.Scan(
			&ev.EventID, &ev.Symbol, &ev.Timeframe, &ev.EventTS, &ev.SignalType,
			&ev.CompositeScore, &ev.Grade, &ev.PivotPrice, &ev.ClosePrice, &ev.StopPrice,
			&ev.RiskPct, &componentsJSON, &ev.DedupeKey, &ev.Summary,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		if err := json.Unmarshal(componentsJSON, &ev.Components); err != nil {
			return nil, fmt.Errorf("failed to unmarshal components: %w", err)
		}

		events = append(events, &ev)
	}

	return events, rows.Err()
}
