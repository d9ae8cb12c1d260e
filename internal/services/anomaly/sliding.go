package anomaly

import (
	"fmt"
	"math"

	"RetScan/internal/domain/models"
)

// SlidingConfig configures the windowed z-score detector.
type SlidingConfig struct {
	Window    int     // trailing window size, >= 1
	Threshold float64 // multiple of the window stddev, > 0
}

func (c SlidingConfig) validate() error {
	if c.Window < 1 {
		return fmt.Errorf("%w: window size %d, must be >= 1", ErrConfig, c.Window)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("%w: threshold %v, must be > 0", ErrConfig, c.Threshold)
	}
	return nil
}

// DetectSliding flags points whose deviation from the trailing-window mean
// exceeds threshold x stddev. Each value is fed into the window before being
// tested, so the window always includes the current point; the first W-1
// points can never be flagged because the window is not yet full there.
// Deterministic: same input and config always yields the same label set.
func DetectSliding(series []float64, cfg SlidingConfig) (models.LabelSet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	stats, err := NewRollingStats(cfg.Window)
	if err != nil {
		return nil, err
	}

	flagged := make([]int, 0)
	for i, v := range series {
		stats.Add(v)
		if !stats.Ready() {
			continue
		}
		if math.Abs(v-stats.Mean()) > cfg.Threshold*stats.StdDev() {
			flagged = append(flagged, i)
		}
	}
	return models.NewLabelSet(flagged), nil
}
