package contracts

import (
	"sort"
	"time"
)

// Bar is a single normalized OHLCV bar.
// ⭐ SSOT: 봉 데이터 구조는 여기서만 정의
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Series is a bar sequence in chronological order: index 0 is the
// oldest bar, the last index is the most recent. All positional math
// in the pattern layer (lookback windows, "after the pivot") is
// defined against this ordering.
type Series []Bar

// NewSeries normalizes an arbitrary bar slice into canonical order.
// Feeds deliver newest-first, backtests oldest-first; both are
// accepted. The input slice is not modified.
func NewSeries(bars []Bar) Series {
	s := make(Series, len(bars))
	copy(s, bars)

	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})

	return s
}

// Len returns the number of bars
func (s Series) Len() int {
	return len(s)
}

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the most recent n bars (all bars when n >= len).
// The returned slice shares backing storage with the receiver.
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// MinCloseFrom returns the minimum close from index i (inclusive) to
// the end of the series.
func (s Series) MinCloseFrom(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}

	min := s[i].Close
	for _, b := range s[i+1:] {
		if b.Close < min {
			min = b.Close
		}
	}
	return min, true
}

// AvgVolumeBeforeLast returns the mean volume of the n bars preceding
// the most recent bar. Used to judge whether the latest bar's volume
// confirms a move.
func (s Series) AvgVolumeBeforeLast(n int) (float64, bool) {
	if n <= 0 || len(s) < n+1 {
		return 0, false
	}

	total := int64(0)
	for _, b := range s[len(s)-1-n : len(s)-1] {
		total += b.Volume
	}
	return float64(total) / float64(n), true
}
