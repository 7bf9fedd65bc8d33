package contracts

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestNewSeriesNormalizesOrdering(t *testing.T) {
	// Newest-first input, the order feeds deliver
	bars := []Bar{
		{Timestamp: day(2), Close: 30},
		{Timestamp: day(1), Close: 20},
		{Timestamp: day(0), Close: 10},
	}

	s := NewSeries(bars)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	for i := 1; i < s.Len(); i++ {
		if s[i].Timestamp.Before(s[i-1].Timestamp) {
			t.Errorf("series not ascending at index %d", i)
		}
	}

	if s[0].Close != 10 {
		t.Errorf("oldest bar close = %v, want 10", s[0].Close)
	}

	last, ok := s.Last()
	if !ok || last.Close != 30 {
		t.Errorf("Last() = %v, %v; want close 30", last, ok)
	}

	// Input slice must be untouched
	if bars[0].Close != 30 {
		t.Error("NewSeries modified its input")
	}
}

func TestNewSeriesAlreadyAscending(t *testing.T) {
	bars := []Bar{
		{Timestamp: day(0), Close: 10},
		{Timestamp: day(1), Close: 20},
	}

	s := NewSeries(bars)

	if s[0].Close != 10 || s[1].Close != 20 {
		t.Errorf("ascending input reordered: %v", s)
	}
}

func TestSeriesTail(t *testing.T) {
	s := NewSeries([]Bar{
		{Timestamp: day(0), Close: 1},
		{Timestamp: day(1), Close: 2},
		{Timestamp: day(2), Close: 3},
	})

	tests := []struct {
		n       int
		wantLen int
		wantFirst float64
	}{
		{2, 2, 2},
		{3, 3, 1},
		{10, 3, 1},
		{0, 0, 0},
	}

	for _, tt := range tests {
		tail := s.Tail(tt.n)
		if tail.Len() != tt.wantLen {
			t.Errorf("Tail(%d).Len() = %d, want %d", tt.n, tail.Len(), tt.wantLen)
			continue
		}
		if tt.wantLen > 0 && tail[0].Close != tt.wantFirst {
			t.Errorf("Tail(%d)[0].Close = %v, want %v", tt.n, tail[0].Close, tt.wantFirst)
		}
	}
}

func TestMinCloseFrom(t *testing.T) {
	s := NewSeries([]Bar{
		{Timestamp: day(0), Close: 95},
		{Timestamp: day(1), Close: 92},
		{Timestamp: day(2), Close: 87},
		{Timestamp: day(3), Close: 90},
	})

	min, ok := s.MinCloseFrom(1)
	if !ok {
		t.Fatal("expected ok")
	}
	if min != 87 {
		t.Errorf("MinCloseFrom(1) = %v, want 87", min)
	}

	if _, ok := s.MinCloseFrom(99); ok {
		t.Error("expected out-of-range index to report not ok")
	}

	if _, ok := s.MinCloseFrom(-1); ok {
		t.Error("expected negative index to report not ok")
	}
}

func TestAvgVolumeBeforeLast(t *testing.T) {
	s := NewSeries([]Bar{
		{Timestamp: day(0), Volume: 100},
		{Timestamp: day(1), Volume: 200},
		{Timestamp: day(2), Volume: 300},
		{Timestamp: day(3), Volume: 9999}, // latest bar, excluded
	})

	avg, ok := s.AvgVolumeBeforeLast(3)
	if !ok {
		t.Fatal("expected ok")
	}
	if avg != 200 {
		t.Errorf("AvgVolumeBeforeLast(3) = %v, want 200", avg)
	}

	// Not enough history
	if _, ok := s.AvgVolumeBeforeLast(4); ok {
		t.Error("expected insufficient history to report not ok")
	}
}
