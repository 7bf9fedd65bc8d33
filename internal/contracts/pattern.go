package contracts

// Contraction is one pullback leg of the pattern: the percentage drop
// from a swing high to its paired low.
// 눌림목 한 구간
type Contraction struct {
	High     Swing   `json:"high"`
	Low      Swing   `json:"low"`
	DepthPct float64 `json:"depth_pct"` // (high - low) / high * 100
}

// ContractionCandidate is a detected volatility-contraction setup.
// Invariant (enforced by the detector, not here): depths strictly
// decrease, every depth is positive, and each stage ratio clears the
// configured minimum.
type ContractionCandidate struct {
	Symbol       string        `json:"symbol"`
	PivotPrice   float64       `json:"pivot_price"` // most recent swing high
	Contractions []Contraction `json:"contractions"`
	Ratios       []float64     `json:"ratios"` // depth_i / depth_i+1 per adjacent pair
	SwingPoints  []Swing       `json:"swing_points"`
}

// Depths returns the contraction depths in stage order (c1 first)
func (c *ContractionCandidate) Depths() []float64 {
	depths := make([]float64, len(c.Contractions))
	for i, leg := range c.Contractions {
		depths[i] = leg.DepthPct
	}
	return depths
}

// LastLow returns the low of the final contraction, the natural stop
// reference for the setup.
func (c *ContractionCandidate) LastLow() (Swing, bool) {
	if len(c.Contractions) == 0 {
		return Swing{}, false
	}
	return c.Contractions[len(c.Contractions)-1].Low, true
}

// TradeStatus classifies a candidate relative to the current price
type TradeStatus string

const (
	// TradeStatusWatch: price still under the pivot, setup intact
	TradeStatusWatch TradeStatus = "watch"
	// TradeStatusBreakout: price cleared the pivot
	TradeStatusBreakout TradeStatus = "breakout"
	// TradeStatusInvalid: price fell through the stop level
	TradeStatusInvalid TradeStatus = "invalid"
)

// ProximityAssessment is the pivot-proximity read on a candidate:
// where price sits relative to the pivot, the derived stop, and
// whether volume confirmed a move above the pivot.
type ProximityAssessment struct {
	DistancePct     float64     `json:"distance_pct"` // (price - pivot) / pivot * 100
	StopPrice       float64     `json:"stop_price"`
	RiskPct         float64     `json:"risk_pct"` // (price - stop) / price * 100
	Status          TradeStatus `json:"status"`
	VolumeConfirmed bool        `json:"volume_confirmed"`
}
