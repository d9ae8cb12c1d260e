package usecase

import (
	"context"
	"fmt"

	"RetScan/internal/domain/models"
	drepo "RetScan/internal/domain/repository"
	dservice "RetScan/internal/domain/service"
	"RetScan/internal/services/features"
)

// BarSeriesSource resolves return series from stored daily bars, running the
// feature pipeline over them.
type BarSeriesSource struct {
	bars         drepo.BarStore
	volWindow    int
	volumeWindow int
}

func NewBarSeriesSource(bars drepo.BarStore) dservice.SeriesSource {
	return &BarSeriesSource{
		bars:         bars,
		volWindow:    features.DefaultVolatilityWindow,
		volumeWindow: features.DefaultVolumeWindow,
	}
}

// Returns loads the most recent bars for ticker and derives up to n feature
// rows. Extra bars are fetched to cover the rolling-window warmup.
func (s *BarSeriesSource) Returns(ctx context.Context, ticker string, n int) ([]models.FeatureRow, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if n < 1 {
		return nil, fmt.Errorf("lookback must be positive")
	}

	warmup := s.volumeWindow
	if s.volWindow+1 > warmup {
		warmup = s.volWindow + 1
	}
	bars, err := s.bars.GetLatestNBars(ctx, ticker, n+warmup)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", ticker, err)
	}

	rows := features.BuildRows(bars, s.volWindow, s.volumeWindow)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usable history for %s", ticker)
	}
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}
