package models

import (
	"sort"
	"time"
)

// LabelSet is the set of flagged indices from a single detector run, stored
// sorted ascending. It is created once per run and never mutated afterward.
type LabelSet []int

// NewLabelSet copies and sorts indices into a LabelSet.
func NewLabelSet(indices []int) LabelSet {
	out := make(LabelSet, len(indices))
	copy(out, indices)
	sort.Ints(out)
	return out
}

// Contains reports whether index i was flagged.
func (s LabelSet) Contains(i int) bool {
	pos := sort.SearchInts(s, i)
	return pos < len(s) && s[pos] == i
}

// Count returns the number of flagged indices.
func (s LabelSet) Count() int { return len(s) }

// Rate returns the anomaly rate against a series of length n.
func (s LabelSet) Rate(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(len(s)) / float64(n)
}

// Intersect returns indices flagged in both sets. Both receivers are sorted,
// so a linear merge suffices.
func (s LabelSet) Intersect(other LabelSet) LabelSet {
	out := make(LabelSet, 0)
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] < other[j]:
			i++
		case s[i] > other[j]:
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	return out
}

// DetectorSummary describes one detector's output against a series.
type DetectorSummary struct {
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

// ComparisonReport holds the overlap statistics between two detector runs
// over the same series.
type ComparisonReport struct {
	N            int             `json:"n"`
	Sliding      DetectorSummary `json:"sliding"`
	Robust       DetectorSummary `json:"robust"`
	OverlapCount int             `json:"overlap_count"`
	OverlapRate  float64         `json:"overlap_rate"`
}

// TerminationReason explains how a calibration search ended.
type TerminationReason string

const (
	// AcceptedInRange: a candidate rate fell inside [0.8*target, 1.2*target].
	AcceptedInRange TerminationReason = "accepted_in_range"
	// CloseToTarget: a candidate missed the relative band but came within the
	// absolute closeness tolerance of the target.
	CloseToTarget TerminationReason = "close_to_target"
	// ExhaustedSearch: the candidate list ran out; the best-seen candidate is used.
	ExhaustedSearch TerminationReason = "exhausted_search"
)

// CalibrationTrial records a single threshold evaluation inside the search.
type CalibrationTrial struct {
	Threshold float64 `json:"threshold"`
	Count     int     `json:"count"`
	Rate      float64 `json:"rate"`
	Accepted  bool    `json:"accepted"`
}

// CalibrationResult is the outcome of a threshold-calibration search.
// Trace holds every trial in evaluation order so reporting can replay the
// search without the algorithm printing anything itself.
type CalibrationResult struct {
	Threshold float64            `json:"threshold"`
	Labels    LabelSet           `json:"labels"`
	Rate      float64            `json:"rate"`
	Reason    TerminationReason  `json:"reason"`
	Trace     []CalibrationTrial `json:"trace,omitempty"`
}

// ScanResult is the full outcome of one detection run over a ticker's series.
type ScanResult struct {
	RunID       string            `json:"run_id"`
	Ticker      string            `json:"ticker"`
	N           int               `json:"n"`
	Sliding     LabelSet          `json:"sliding"`
	Robust      LabelSet          `json:"robust"`
	Calibration CalibrationResult `json:"calibration"`
	Comparison  ComparisonReport  `json:"comparison"`
	StartedAt   time.Time         `json:"started_at"`
	Elapsed     time.Duration     `json:"elapsed_ns"`
}

// AnomalyEvent is published to Kafka for every flagged point.
type AnomalyEvent struct {
	RunID    string    `json:"run_id"`
	Ticker   string    `json:"ticker"`
	Index    int       `json:"index"`
	Date     time.Time `json:"date,omitempty"`
	Return   float64   `json:"return"`
	Detector string    `json:"detector"` // "sliding" or "robust"
}

// FlaggedRow is one persisted feature row annotated with per-detector flags.
type FlaggedRow struct {
	RunID   string     `json:"run_id"`
	Row     FeatureRow `json:"row"`
	Index   int        `json:"index"`
	Sliding bool       `json:"sliding"`
	Robust  bool       `json:"robust"`
}
