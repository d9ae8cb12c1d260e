package anomaly

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestDetectSlidingConfigErrors(t *testing.T) {
	series := []float64{1, 2, 3}
	if _, err := DetectSliding(series, SlidingConfig{Window: 0, Threshold: 2}); !errors.Is(err, ErrConfig) {
		t.Fatalf("window 0: expected ErrConfig, got %v", err)
	}
	if _, err := DetectSliding(series, SlidingConfig{Window: 3, Threshold: 0}); !errors.Is(err, ErrConfig) {
		t.Fatalf("threshold 0: expected ErrConfig, got %v", err)
	}
	if _, err := DetectSliding(series, SlidingConfig{Window: 3, Threshold: -1}); !errors.Is(err, ErrConfig) {
		t.Fatalf("negative threshold: expected ErrConfig, got %v", err)
	}
}

func TestDetectSlidingSpike(t *testing.T) {
	// Ten flat points and a spike. The window includes the current point, so
	// the spike's z-score inside a 10-wide window is sqrt(9) = 3.
	series := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10}
	labels, err := DetectSliding(series, SlidingConfig{Window: 10, Threshold: 2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual([]int(labels), []int{10}) {
		t.Fatalf("flagged %v, want [10]", labels)
	}
}

func TestDetectSlidingNeverFlagsWarmup(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	series := make([]float64, 200)
	for i := range series {
		series[i] = rng.NormFloat64()
	}
	for _, w := range []int{1, 5, 30, 60} {
		labels, err := DetectSliding(series, SlidingConfig{Window: w, Threshold: 0.5})
		if err != nil {
			t.Fatalf("window %d: %v", w, err)
		}
		for _, idx := range labels {
			if idx < w-1 {
				t.Fatalf("window %d flagged warmup index %d", w, idx)
			}
		}
	}
}

func TestDetectSlidingThresholdMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	series := make([]float64, 500)
	for i := range series {
		series[i] = rng.NormFloat64() * 0.01
	}
	prev := len(series) + 1
	for _, th := range []float64{0.5, 1.0, 1.5, 2.0, 3.0} {
		labels, err := DetectSliding(series, SlidingConfig{Window: 30, Threshold: th})
		if err != nil {
			t.Fatalf("threshold %v: %v", th, err)
		}
		if labels.Count() > prev {
			t.Fatalf("raising threshold to %v increased flagged count %d -> %d", th, prev, labels.Count())
		}
		prev = labels.Count()
	}
}

func TestDetectSlidingIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	series := make([]float64, 300)
	for i := range series {
		series[i] = rng.NormFloat64()
	}
	cfg := SlidingConfig{Window: 20, Threshold: 2.0}
	a, err := DetectSliding(series, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := DetectSliding(series, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("detector is not deterministic: %v vs %v", a, b)
	}
}

func TestDetectSlidingEmptySeries(t *testing.T) {
	labels, err := DetectSliding(nil, SlidingConfig{Window: 5, Threshold: 2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels.Count() != 0 {
		t.Fatalf("empty series flagged %d points", labels.Count())
	}
}
