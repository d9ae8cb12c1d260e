package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"RetScan/internal/domain/models"
	drepo "RetScan/internal/domain/repository"
	dservice "RetScan/internal/domain/service"
	"RetScan/internal/services/anomaly"
	"RetScan/internal/services/features"
	"RetScan/pkg/cache"
	applogger "RetScan/pkg/logger"
)

// ErrScanInProgress is returned when another scan already holds the
// per-ticker lock.
var ErrScanInProgress = errors.New("scan already in progress for ticker")

const (
	scanLockTTL     = 30 * time.Second
	defaultLookback = 250
)

// ScanUseCase runs the full detection pipeline for one ticker: resolve the
// return series, run both detectors, calibrate, compare, persist and publish.
type ScanUseCase struct {
	source  dservice.SeriesSource
	results drepo.ResultStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	cache   cache.Service
	l       *applogger.Logger
}

func NewScanUseCase(
	source dservice.SeriesSource,
	results drepo.ResultStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	c cache.Service,
	l *applogger.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		source:  source,
		results: results,
		pub:     pub,
		metrics: metrics,
		cache:   c,
		l:       l,
	}
}

// Scan executes one detection run. When req.Series is provided the scan runs
// over the inline values and skips locking, persistence and publishing.
func (uc *ScanUseCase) Scan(ctx context.Context, req models.ScanRequest, trigger string) (*models.ScanResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	inline := len(req.Series) > 0
	var (
		rows   []models.FeatureRow
		series []float64
	)
	if inline {
		series = req.Series
	} else {
		if uc.cache != nil {
			key := "scan:lock:" + req.Ticker
			ok, err := uc.cache.TryLock(ctx, key, scanLockTTL)
			if err != nil {
				return nil, fmt.Errorf("acquire scan lock: %w", err)
			}
			if !ok {
				return nil, ErrScanInProgress
			}
			defer func() { _ = uc.cache.Unlock(context.WithoutCancel(ctx), key) }()
		}

		var err error
		rows, err = uc.source.Returns(ctx, req.Ticker, req.Lookback)
		if err != nil {
			uc.metrics.RecordError("series_source")
			return nil, fmt.Errorf("resolve series %s: %w", req.Ticker, err)
		}
		series = features.Returns(rows)
	}

	sliding, err := anomaly.DetectSliding(series, anomaly.SlidingConfig{
		Window:    req.Window,
		Threshold: req.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("sliding detector: %w", err)
	}
	robust, err := anomaly.DetectRobust(series, req.Threshold)
	if err != nil {
		return nil, fmt.Errorf("robust detector: %w", err)
	}
	calib, err := anomaly.Calibrate(series, anomaly.CalibrationConfig{
		TargetRate: req.TargetRate,
		WithTrace:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}

	res := &models.ScanResult{
		RunID:       runID,
		Ticker:      req.Ticker,
		N:           len(series),
		Sliding:     sliding,
		Robust:      robust,
		Calibration: calib,
		Comparison:  anomaly.Compare(sliding, robust, len(series)),
		StartedAt:   start,
		Elapsed:     time.Since(start),
	}

	uc.metrics.RecordScan(req.Ticker, trigger)
	uc.metrics.RecordFlagged(req.Ticker, "sliding", sliding.Count())
	uc.metrics.RecordFlagged(req.Ticker, "robust", robust.Count())
	uc.metrics.RecordLatency("scan", time.Since(start).Seconds())

	if !inline {
		if err := uc.persist(ctx, runID, req.Ticker, rows, res); err != nil {
			return nil, err
		}
	}

	if uc.l != nil {
		uc.l.Info("scan complete",
			applogger.String("run_id", runID),
			applogger.String("ticker", req.Ticker),
			applogger.Int("n", res.N),
			applogger.Int("sliding_flags", sliding.Count()),
			applogger.Int("robust_flags", robust.Count()),
			applogger.String("calib_reason", string(calib.Reason)),
			applogger.Duration("duration_ms", res.Elapsed),
		)
	}
	return res, nil
}

// Calibrate runs only the threshold search, without persisting anything.
func (uc *ScanUseCase) Calibrate(ctx context.Context, req models.CalibrateRequest) (models.CalibrationResult, error) {
	var series []float64
	if len(req.Series) > 0 {
		series = req.Series
	} else {
		rows, err := uc.source.Returns(ctx, req.Ticker, defaultLookback)
		if err != nil {
			uc.metrics.RecordError("series_source")
			return models.CalibrationResult{}, fmt.Errorf("resolve series %s: %w", req.Ticker, err)
		}
		series = features.Returns(rows)
	}
	return anomaly.Calibrate(series, anomaly.CalibrationConfig{
		TargetRate: req.TargetRate,
		WithTrace:  req.WithTrace,
	})
}

// persist writes flagged rows and the calibration outcome, then publishes one
// event per flagged point. Publish failures are logged, not fatal: the run is
// already durable in ClickHouse.
func (uc *ScanUseCase) persist(ctx context.Context, runID, ticker string, rows []models.FeatureRow, res *models.ScanResult) error {
	flagged := make([]models.FlaggedRow, 0, res.Sliding.Count()+res.Robust.Count())
	events := make([]models.AnomalyEvent, 0, cap(flagged))
	for i, row := range rows {
		s, r := res.Sliding.Contains(i), res.Robust.Contains(i)
		if !s && !r {
			continue
		}
		flagged = append(flagged, models.FlaggedRow{
			RunID:   runID,
			Row:     row,
			Index:   i,
			Sliding: s,
			Robust:  r,
		})
		if s {
			events = append(events, models.AnomalyEvent{
				RunID: runID, Ticker: ticker, Index: i,
				Date: row.Date, Return: row.Return, Detector: "sliding",
			})
		}
		if r {
			events = append(events, models.AnomalyEvent{
				RunID: runID, Ticker: ticker, Index: i,
				Date: row.Date, Return: row.Return, Detector: "robust",
			})
		}
	}

	if err := uc.results.StoreFlags(ctx, flagged); err != nil {
		uc.metrics.RecordError("store_flags")
		return fmt.Errorf("store flags: %w", err)
	}
	if err := uc.results.StoreCalibration(ctx, runID, ticker, res.Calibration); err != nil {
		uc.metrics.RecordError("store_calibration")
		return fmt.Errorf("store calibration: %w", err)
	}

	if uc.pub != nil && len(events) > 0 {
		if err := uc.pub.PublishEvents(ctx, events); err != nil {
			uc.metrics.RecordError("publish_events")
			if uc.l != nil {
				uc.l.Error("publish anomaly events",
					applogger.String("run_id", runID),
					applogger.String("ticker", ticker),
					applogger.Int("events", len(events)),
					applogger.Error(err),
				)
			}
		}
	}
	return nil
}
