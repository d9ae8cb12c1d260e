package usecase

import (
	"context"
	"fmt"

	"RetScan/internal/domain/models"
	dservice "RetScan/internal/domain/service"
	"RetScan/internal/services/cluster"
)

// ClusterUseCase groups a ticker's feature rows with the requested method.
type ClusterUseCase struct {
	source dservice.SeriesSource
}

func NewClusterUseCase(source dservice.SeriesSource) *ClusterUseCase {
	return &ClusterUseCase{source: source}
}

// ClusterResult pairs each feature row with its assigned label.
type ClusterResult struct {
	Ticker string      `json:"ticker"`
	Method string      `json:"method"`
	N      int         `json:"n"`
	Labels []int       `json:"labels"`
	Sizes  map[int]int `json:"sizes"`
}

func (uc *ClusterUseCase) Cluster(ctx context.Context, req models.ClusterRequest, lookback int) (*ClusterResult, error) {
	rows, err := uc.source.Returns(ctx, req.Ticker, lookback)
	if err != nil {
		return nil, fmt.Errorf("resolve series %s: %w", req.Ticker, err)
	}

	vectors := make([][]float64, len(rows))
	for i, r := range rows {
		vectors[i] = r.Vector()
	}

	var c dservice.Clusterer
	switch req.Method {
	case "kmeans":
		c = cluster.NewKMeans(req.K, req.MaxIters)
	case "dbscan":
		c = cluster.NewDBSCAN(req.Eps, req.MinPts)
	default:
		return nil, fmt.Errorf("unknown clustering method %q", req.Method)
	}

	labels, err := c.Cluster(vectors)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: %w", req.Ticker, err)
	}

	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	return &ClusterResult{
		Ticker: req.Ticker,
		Method: req.Method,
		N:      len(rows),
		Labels: labels,
		Sizes:  sizes,
	}, nil
}
