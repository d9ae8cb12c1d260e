package service

import (
	"context"

	"RetScan/internal/domain/models"
)

// SeriesSource resolves the numeric return series a scan operates on.
// Implementations may read from ClickHouse, a CSV dataset, or a remote API.
type SeriesSource interface {
	Returns(ctx context.Context, ticker string, n int) ([]models.FeatureRow, error)
}

// Clusterer groups static feature vectors. Unrelated to the detectors: it has
// its own randomness and no notion of index order.
type Clusterer interface {
	Cluster(vectors [][]float64) ([]int, error)
}
