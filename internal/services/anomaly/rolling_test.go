package anomaly

import (
	"errors"
	"math"
	"testing"
)

func TestNewRollingStatsRejectsBadWindow(t *testing.T) {
	for _, w := range []int{0, -1, -30} {
		if _, err := NewRollingStats(w); !errors.Is(err, ErrConfig) {
			t.Fatalf("window %d: expected ErrConfig, got %v", w, err)
		}
	}
}

func TestRollingStatsEmptyWindow(t *testing.T) {
	s, err := NewRollingStats(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mean() != 0.0 || s.StdDev() != 0.0 {
		t.Fatalf("empty window must report 0 mean/stddev, got %v/%v", s.Mean(), s.StdDev())
	}
	if s.Ready() {
		t.Fatalf("empty window must not be ready")
	}
}

func TestRollingStatsEviction(t *testing.T) {
	s, _ := NewRollingStats(3)
	for _, v := range []float64{1, 2, 3} {
		s.Add(v)
	}
	if !s.Ready() {
		t.Fatalf("expected ready after 3 adds")
	}
	if got := s.Mean(); got != 2.0 {
		t.Fatalf("mean = %v, want 2.0", got)
	}

	// Evicts the 1; window is now [2 3 4].
	s.Add(4)
	if got := s.Mean(); got != 3.0 {
		t.Fatalf("mean after eviction = %v, want 3.0", got)
	}
	if s.Len() != 3 {
		t.Fatalf("window grew past capacity: len=%d", s.Len())
	}
}

func TestRollingStatsStdDev(t *testing.T) {
	s, _ := NewRollingStats(4)
	for _, v := range []float64{2, 4, 4, 6} {
		s.Add(v)
	}
	// mean 4, population variance (4+0+0+4)/4 = 2
	want := math.Sqrt(2)
	if got := s.StdDev(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("stddev = %v, want %v", got, want)
	}
}

func TestRollingStatsPartialFill(t *testing.T) {
	s, _ := NewRollingStats(5)
	s.Add(10)
	s.Add(20)
	if s.Ready() {
		t.Fatalf("window with 2/5 values must not be ready")
	}
	if got := s.Mean(); got != 15.0 {
		t.Fatalf("partial mean = %v, want 15.0", got)
	}
}
