package anomaly

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfig marks invalid detector configuration. Callers fail fast before any
// computation; it is never produced mid-run.
var ErrConfig = errors.New("invalid detector configuration")

// RollingStats maintains a bounded trailing window of the most recent
// observations in a fixed-capacity ring buffer. Capacity is a hard invariant:
// the buffer never grows past the window size, the oldest value is evicted
// in place when a new one arrives.
type RollingStats struct {
	buf  []float64
	head int // next write position
	n    int // current fill, 0..len(buf)
}

// NewRollingStats creates a window of the given size (>= 1).
func NewRollingStats(window int) (*RollingStats, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window size %d, must be >= 1", ErrConfig, window)
	}
	return &RollingStats{buf: make([]float64, window)}, nil
}

// Add appends an observation, evicting the oldest when the window is full. O(1).
func (s *RollingStats) Add(v float64) {
	s.buf[s.head] = v
	s.head = (s.head + 1) % len(s.buf)
	if s.n < len(s.buf) {
		s.n++
	}
}

// Len returns the current number of held observations.
func (s *RollingStats) Len() int { return s.n }

// Ready reports whether the window holds exactly its capacity of values.
func (s *RollingStats) Ready() bool { return s.n == len(s.buf) }

// Mean returns the mean of the current window, 0.0 when empty.
func (s *RollingStats) Mean() float64 {
	if s.n == 0 {
		return 0.0
	}
	sum := 0.0
	for i := 0; i < s.n; i++ {
		sum += s.buf[i]
	}
	return sum / float64(s.n)
}

// StdDev returns the population standard deviation of the current window,
// 0.0 when empty.
func (s *RollingStats) StdDev() float64 {
	if s.n == 0 {
		return 0.0
	}
	m := s.Mean()
	sq := 0.0
	for i := 0; i < s.n; i++ {
		d := s.buf[i] - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(s.n))
}
