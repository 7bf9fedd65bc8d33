package contracts

import "time"

// SignalEvent is one emitted screener signal. Immutable once created;
// the signals table is an append-only historical record keyed by
// EventID.
// ⭐ SSOT: 시그널 이벤트 구조는 여기서만 정의
type SignalEvent struct {
	EventID   string    `json:"event_id"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"` // "D" for daily
	EventTS   time.Time `json:"event_ts"`

	SignalType     string  `json:"signal_type"`
	CompositeScore float64 `json:"composite_score"`
	Grade          string  `json:"grade"`

	// Setup geometry
	PivotPrice float64 `json:"pivot_price"`
	ClosePrice float64 `json:"close_price"`
	StopPrice  float64 `json:"stop_price"`
	RiskPct    float64 `json:"risk_pct"`

	Components []ComponentScore `json:"components"`

	DedupeKey string `json:"dedupe_key"`
	Summary   string `json:"summary"`
}

// SignalState is the per-fingerprint cooldown record. One mutable row
// per dedupe key; created on first notification, updated on every
// later one, never deleted (permanent audit of suppression decisions).
type SignalState struct {
	DedupeKey      string    `json:"dedupe_key"`
	LastNotifiedTS time.Time `json:"last_notified_ts"`
	CooldownUntil  time.Time `json:"cooldown_until_ts"`
	// Trading day (KST, YYYY-MM-DD) of the last notification.
	// Informational only; suppression is decided by CooldownUntil.
	LastSymbolDay string    `json:"last_symbol_day"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InCooldown reports whether a new event at ts must be suppressed
func (s *SignalState) InCooldown(ts time.Time) bool {
	if s == nil {
		return false
	}
	return s.CooldownUntil.After(ts)
}

// TradingDay formats a timestamp as the trading day in the given
// location (YYYY-MM-DD). Used for SignalState.LastSymbolDay.
func TradingDay(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return ts.In(loc).Format("2006-01-02")
}
