package anomaly

import (
	"fmt"
	"math"
	"sort"

	"RetScan/internal/domain/models"
)

const (
	// madScale converts MAD to a stddev-consistent estimate under normality.
	madScale = 1.4826
	// epsStd floors the robust stddev so normalized deviations never divide
	// by zero on a flat series.
	epsStd = 1e-10
	// MinRobustSigma is the domain floor for the robust detector: sub-2-sigma
	// moves in daily return data are not treated as anomalous no matter how
	// low a threshold the caller asks for. A deliberate policy, not clamping
	// of invalid input.
	MinRobustSigma = 2.0
	// deviationBuffer keeps borderline points out: a point must clear the
	// adaptive threshold by 20% to be selected.
	deviationBuffer = 1.2
	// MaxFlagRatio caps how much of the series the robust detector may flag,
	// independent of threshold.
	MaxFlagRatio = 0.05
)

// RobustStats holds whole-series robust location and scale estimates.
// Median and MAD have a ~50% breakdown point, so the estimate stays stable
// in the presence of the very outliers the detector is looking for.
type RobustStats struct {
	Median float64
	MAD    float64
	Std    float64 // max(MAD*1.4826, epsStd)
}

// EstimateRobust computes median, MAD and the robust stddev over the whole
// series. Order of the input is irrelevant; only the value multiset matters.
func EstimateRobust(series []float64) RobustStats {
	if len(series) == 0 {
		return RobustStats{Std: epsStd}
	}

	med := medianOf(series)

	devs := make([]float64, len(series))
	for i, v := range series {
		devs[i] = math.Abs(v - med)
	}
	mad := medianOf(devs)

	std := mad * madScale
	if std < epsStd {
		std = epsStd
	}
	return RobustStats{Median: med, MAD: mad, Std: std}
}

// medianOf returns the median of a sorted copy: the central value for odd
// length, the average of the two central values for even length.
func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

type rankedPoint struct {
	dev float64
	idx int
}

// DetectRobust ranks every point by normalized deviation from the series
// median and flags the top ones. The requested threshold is floored at
// MinRobustSigma, a point must clear the floored threshold by
// deviationBuffer, and at most MaxFlagRatio of the series is ever flagged.
func DetectRobust(series []float64, threshold float64) (models.LabelSet, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold %v, must be > 0", ErrConfig, threshold)
	}
	if len(series) == 0 {
		return models.LabelSet{}, nil
	}
	return detectRobustWith(series, EstimateRobust(series), threshold), nil
}

// detectRobustWith runs the selection against pre-computed robust statistics.
// The calibrator uses this to estimate once and re-rank many times.
func detectRobustWith(series []float64, rs RobustStats, threshold float64) models.LabelSet {
	adaptive := math.Max(threshold, MinRobustSigma)

	ranking := make([]rankedPoint, len(series))
	for i, v := range series {
		ranking[i] = rankedPoint{dev: math.Abs(v-rs.Median) / rs.Std, idx: i}
	}
	// Descending by deviation; the stable sort keeps ties in original index
	// order so output is deterministic.
	sort.SliceStable(ranking, func(a, b int) bool { return ranking[a].dev > ranking[b].dev })

	maxCount := int(float64(len(series)) * MaxFlagRatio)
	flagged := make([]int, 0, maxCount)
	for _, p := range ranking {
		// Ranking is sorted, so the first failing point means every later
		// point fails too.
		if p.dev <= adaptive*deviationBuffer || len(flagged) >= maxCount {
			break
		}
		flagged = append(flagged, p.idx)
	}
	return models.NewLabelSet(flagged)
}
