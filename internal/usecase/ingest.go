package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "RetScan/internal/domain/repository"
	applogger "RetScan/pkg/logger"
)

// IngestUseCase pulls daily bars from the market-data provider and persists
// them, one ticker at a time.
type IngestUseCase struct {
	source  drepo.BarSource
	store   drepo.BarStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewIngestUseCase(source drepo.BarSource, store drepo.BarStore, metrics drepo.Metrics, l *applogger.Logger) *IngestUseCase {
	return &IngestUseCase{source: source, store: store, metrics: metrics, l: l}
}

// IngestTicker fetches and stores bars for one ticker over [from, to].
// Returns the number of bars stored.
func (uc *IngestUseCase) IngestTicker(ctx context.Context, ticker string, from, to time.Time) (int, error) {
	start := time.Now()
	bars, err := uc.source.FetchDailyBars(ctx, ticker, from, to)
	if err != nil {
		uc.metrics.RecordError("fetch_bars")
		return 0, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return 0, nil
	}
	if err := uc.store.StoreBars(ctx, bars); err != nil {
		uc.metrics.RecordError("store_bars")
		return 0, fmt.Errorf("store %s: %w", ticker, err)
	}
	uc.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	if uc.l != nil {
		uc.l.Info("ingested bars",
			applogger.String("ticker", ticker),
			applogger.Int("bars", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return len(bars), nil
}

// IngestAll fetches every ticker sequentially, continuing past per-ticker
// failures. Returns the total bar count and the first error seen.
func (uc *IngestUseCase) IngestAll(ctx context.Context, tickers []string, from, to time.Time) (int, error) {
	total := 0
	var firstErr error
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := uc.IngestTicker(ctx, t, from, to)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if uc.l != nil {
				uc.l.Error("ingest ticker failed", applogger.String("ticker", t), applogger.Error(err))
			}
			continue
		}
		total += n
	}
	return total, firstErr
}
