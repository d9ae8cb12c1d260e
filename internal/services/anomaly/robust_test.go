package anomaly

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestEstimateRobustOddLength(t *testing.T) {
	rs := EstimateRobust([]float64{3, 1, 2})
	if rs.Median != 2.0 {
		t.Fatalf("median = %v, want 2.0", rs.Median)
	}
	// deviations from 2: [1 1 0] -> sorted [0 1 1] -> median 1
	if rs.MAD != 1.0 {
		t.Fatalf("mad = %v, want 1.0", rs.MAD)
	}
	if math.Abs(rs.Std-1.4826) > 1e-12 {
		t.Fatalf("robust std = %v, want 1.4826", rs.Std)
	}
}

func TestEstimateRobustEvenLength(t *testing.T) {
	rs := EstimateRobust([]float64{4, 1, 3, 2})
	if rs.Median != 2.5 {
		t.Fatalf("median = %v, want 2.5", rs.Median)
	}
	// deviations: [1.5 1.5 0.5 0.5] -> sorted -> (0.5+1.5)/2 = 1
	if rs.MAD != 1.0 {
		t.Fatalf("mad = %v, want 1.0", rs.MAD)
	}
}

func TestEstimateRobustFlatSeries(t *testing.T) {
	rs := EstimateRobust([]float64{5, 5, 5, 5, 5})
	if rs.MAD != 0 {
		t.Fatalf("flat series mad = %v, want 0", rs.MAD)
	}
	if rs.Std != epsStd {
		t.Fatalf("flat series robust std = %v, want epsilon %v", rs.Std, epsStd)
	}
}

func TestEstimateRobustOutlierInsensitive(t *testing.T) {
	// Odd length so the median is a single order statistic, and the corrupted
	// point starts above the median: pushing it to an extreme reorders nothing
	// at or below the median rank, so median and MAD stay put exactly.
	clean := make([]float64, 101)
	for i := range clean {
		clean[i] = float64(i%10) * 0.001
	}
	a := EstimateRobust(clean)
	if a.Median != 0.004 {
		t.Fatalf("clean median = %v, want 0.004", a.Median)
	}

	dirty := make([]float64, len(clean))
	copy(dirty, clean)
	dirty[55] = 1e6 // was 0.005, above the median

	b := EstimateRobust(dirty)
	if a.Median != b.Median {
		t.Fatalf("median moved by a single outlier: %v vs %v", a.Median, b.Median)
	}
	if a.MAD != b.MAD {
		t.Fatalf("mad moved by a single outlier: %v vs %v", a.MAD, b.MAD)
	}
}

func TestDetectRobustConfigError(t *testing.T) {
	if _, err := DetectRobust([]float64{1, 2, 3}, 0); !errors.Is(err, ErrConfig) {
		t.Fatalf("threshold 0: expected ErrConfig, got %v", err)
	}
	if _, err := DetectRobust([]float64{1, 2, 3}, -2); !errors.Is(err, ErrConfig) {
		t.Fatalf("negative threshold: expected ErrConfig, got %v", err)
	}
}

func TestDetectRobustEmptySeries(t *testing.T) {
	labels, err := DetectRobust(nil, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.Count() != 0 {
		t.Fatalf("empty series flagged %d points", labels.Count())
	}
}

func TestDetectRobustConstantSeries(t *testing.T) {
	series := make([]float64, 200)
	for i := range series {
		series[i] = 0.42
	}
	labels, err := DetectRobust(series, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.Count() != 0 {
		t.Fatalf("constant series flagged %d points, want 0", labels.Count())
	}
}

func TestDetectRobustSingleOutlier(t *testing.T) {
	// 99 values at 1.0 and a single 100.0: mad collapses to zero, the robust
	// std becomes epsilon, and only the outlier has a nonzero deviation.
	series := make([]float64, 100)
	for i := range series {
		series[i] = 1.0
	}
	series[37] = 100.0

	labels, err := DetectRobust(series, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual([]int(labels), []int{37}) {
		t.Fatalf("flagged %v, want [37]", labels)
	}
}

func TestDetectRobustCap(t *testing.T) {
	// Twenty extreme points in a series of 200: all of them clear the
	// deviation bar, but the cap must hold at floor(0.05*n) = 10.
	rng := rand.New(rand.NewSource(5))
	series := make([]float64, 200)
	for i := range series {
		series[i] = rng.NormFloat64() * 1e-3
	}
	for i := 0; i < 20; i++ {
		series[i*10] = 1000.0
	}
	for _, th := range []float64{0.1, 1.5, 2.0, 3.5} {
		labels, err := DetectRobust(series, th)
		if err != nil {
			t.Fatalf("threshold %v: %v", th, err)
		}
		if labels.Count() != 10 {
			t.Fatalf("threshold %v flagged %d points, cap is 10", th, labels.Count())
		}
	}
}

func TestDetectRobustAdaptiveFloor(t *testing.T) {
	// A moderate point at ~2.1 robust sigma: below the floored-and-buffered
	// bar (2.0 * 1.2 = 2.4 sigma) it must not be flagged even when the caller
	// asks for a 0.5 threshold.
	rng := rand.New(rand.NewSource(3))
	series := make([]float64, 500)
	for i := range series {
		series[i] = rng.NormFloat64() * 0.01
	}
	rs := EstimateRobust(series)
	series[250] = rs.Median + 2.1*rs.Std

	labels, err := DetectRobust(series, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.Contains(250) {
		t.Fatalf("point at 2.1 robust sigma flagged despite the 2.0 floor and 1.2 buffer")
	}
}

func TestDetectRobustIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	series := make([]float64, 400)
	for i := range series {
		series[i] = rng.NormFloat64()
	}
	a, err := DetectRobust(series, 2.0)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := DetectRobust(series, 2.0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("detector is not deterministic: %v vs %v", a, b)
	}
}

func TestDetectRobustTieBreakDeterministic(t *testing.T) {
	// Two identical extreme values: the ranking must keep index order on ties.
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(i%7) * 1e-4
	}
	series[80] = 5.0
	series[20] = 5.0

	labels, err := DetectRobust(series, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual([]int(labels), []int{20, 80}) {
		t.Fatalf("flagged %v, want [20 80]", labels)
	}
}
