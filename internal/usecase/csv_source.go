package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"RetScan/internal/domain/models"
	dservice "RetScan/internal/domain/service"
	"RetScan/internal/services/dataset"
)

// CSVSeriesSource resolves return series from per-ticker feature CSV files in
// a directory. Used for offline datasets where no bar store is available.
type CSVSeriesSource struct {
	dir string
}

func NewCSVSeriesSource(dir string) dservice.SeriesSource {
	return &CSVSeriesSource{dir: dir}
}

// Returns reads <dir>/<ticker>.csv and trims to the most recent n rows.
func (s *CSVSeriesSource) Returns(ctx context.Context, ticker string, n int) ([]models.FeatureRow, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if n < 1 {
		return nil, fmt.Errorf("lookback must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, ticker+".csv"))
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", ticker, err)
	}
	defer f.Close()

	rows, err := dataset.ReadFeatureRows(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", ticker, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usable history for %s", ticker)
	}
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}
