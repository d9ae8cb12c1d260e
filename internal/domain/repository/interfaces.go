package repository

import (
	"context"
	"time"

	"RetScan/internal/domain/models"
)

// BarStore provides access to daily bars for a ticker.
type BarStore interface {
	GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, ticker string, n int) ([]models.Bar, error)
	StoreBars(ctx context.Context, bars []models.Bar) error
	Health(ctx context.Context) error
}

// BarSource fetches daily bars from an external market-data provider.
type BarSource interface {
	FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error)
}

// ResultStore persists detection output for later reporting.
type ResultStore interface {
	StoreFlags(ctx context.Context, rows []models.FlaggedRow) error
	StoreCalibration(ctx context.Context, runID, ticker string, res models.CalibrationResult) error
	QueryFlags(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.FlaggedRow, error)
}

// Publisher sends anomaly events to the event backend.
type Publisher interface {
	PublishEvent(ctx context.Context, ev models.AnomalyEvent) error
	PublishEvents(ctx context.Context, evs []models.AnomalyEvent) error
	Close() error
}

// Metrics records operational metrics for detection runs.
type Metrics interface {
	RecordScan(ticker, trigger string)
	RecordFlagged(ticker, detector string, count int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
