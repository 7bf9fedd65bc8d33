package contracts

import "time"

// SwingKind distinguishes structural highs from lows
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// Swing is a local structural extreme in a bar series, confirmed by a
// symmetric window of surrounding bars. Derived and ephemeral:
// recomputed per evaluation, never persisted.
type Swing struct {
	Index     int       `json:"index"` // position in the canonical (ascending) series
	Kind      SwingKind `json:"kind"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// IsHigh reports whether the swing is a structural high
func (s Swing) IsHigh() bool {
	return s.Kind == SwingHigh
}

// IsLow reports whether the swing is a structural low
func (s Swing) IsLow() bool {
	return s.Kind == SwingLow
}
