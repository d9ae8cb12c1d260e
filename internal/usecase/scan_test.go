package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RetScan/internal/domain/models"
	"RetScan/pkg/cache"
)

type fakeSource struct {
	rows []models.FeatureRow
	err  error
}

func (f *fakeSource) Returns(_ context.Context, _ string, _ int) ([]models.FeatureRow, error) {
	return f.rows, f.err
}

type fakeResultStore struct {
	flags  []models.FlaggedRow
	calibs []models.CalibrationResult
	err    error
}

func (f *fakeResultStore) StoreFlags(_ context.Context, rows []models.FlaggedRow) error {
	if f.err != nil {
		return f.err
	}
	f.flags = append(f.flags, rows...)
	return nil
}

func (f *fakeResultStore) StoreCalibration(_ context.Context, _, _ string, res models.CalibrationResult) error {
	if f.err != nil {
		return f.err
	}
	f.calibs = append(f.calibs, res)
	return nil
}

func (f *fakeResultStore) QueryFlags(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.FlaggedRow, error) {
	return f.flags, nil
}

type fakePublisher struct {
	events []models.AnomalyEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, ev models.AnomalyEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) PublishEvents(_ context.Context, evs []models.AnomalyEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evs...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	scans   int
	flagged int
	errs    []string
}

func (f *fakeMetrics) RecordScan(_, _ string)               { f.scans++ }
func (f *fakeMetrics) RecordFlagged(_, _ string, count int) { f.flagged += count }
func (f *fakeMetrics) RecordError(kind string)              { f.errs = append(f.errs, kind) }
func (f *fakeMetrics) RecordLatency(_ string, _ float64)    {}

func spikeRows(n, spikeAt int) []models.FeatureRow {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := make([]models.FeatureRow, n)
	for i := range rows {
		ret := 0.001
		if i%2 == 1 {
			ret = -0.001
		}
		if i == spikeAt {
			ret = 0.5
		}
		rows[i] = models.FeatureRow{
			Date:   base.AddDate(0, 0, i),
			Ticker: "AAPL",
			Return: ret,
		}
	}
	return rows
}

func newScanFixture(rows []models.FeatureRow) (*ScanUseCase, *fakeResultStore, *fakePublisher, *fakeMetrics) {
	store := &fakeResultStore{}
	pub := &fakePublisher{}
	m := &fakeMetrics{}
	uc := NewScanUseCase(&fakeSource{rows: rows}, store, pub, m, cache.NewMemoryCache(), nil)
	return uc, store, pub, m
}

func scanReq() models.ScanRequest {
	return models.ScanRequest{
		Ticker:     "AAPL",
		Lookback:   250,
		Window:     30,
		Threshold:  2.5,
		TargetRate: 0.035,
	}
}

func TestScanPersistsAndPublishes(t *testing.T) {
	rows := spikeRows(200, 150)
	uc, store, pub, m := newScanFixture(rows)

	res, err := uc.Scan(context.Background(), scanReq(), "http")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("expected a run id")
	}
	if res.N != 200 {
		t.Fatalf("expected n=200, got %d", res.N)
	}
	if !res.Robust.Contains(150) {
		t.Fatalf("robust detector missed the spike: %v", res.Robust)
	}
	if len(store.flags) == 0 {
		t.Fatal("expected flagged rows persisted")
	}
	if len(store.calibs) != 1 {
		t.Fatalf("expected 1 calibration stored, got %d", len(store.calibs))
	}
	if len(pub.events) == 0 {
		t.Fatal("expected anomaly events published")
	}
	for _, ev := range pub.events {
		if ev.RunID != res.RunID || ev.Ticker != "AAPL" {
			t.Fatalf("event not tagged with run: %+v", ev)
		}
	}
	if m.scans != 1 {
		t.Fatalf("expected 1 scan recorded, got %d", m.scans)
	}
}

func TestScanInlineSeriesSkipsPersistence(t *testing.T) {
	uc, store, pub, _ := newScanFixture(nil)

	req := scanReq()
	req.Ticker = ""
	req.Series = []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10}
	req.Window = 10
	req.Threshold = 2.0

	res, err := uc.Scan(context.Background(), req, "http")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !res.Sliding.Contains(10) {
		t.Fatalf("sliding detector missed the spike: %v", res.Sliding)
	}
	if len(store.flags) != 0 || len(store.calibs) != 0 {
		t.Fatal("inline scans must not persist")
	}
	if len(pub.events) != 0 {
		t.Fatal("inline scans must not publish")
	}
}

func TestScanLockContention(t *testing.T) {
	rows := spikeRows(100, 50)
	store := &fakeResultStore{}
	m := &fakeMetrics{}
	c := cache.NewMemoryCache()
	uc := NewScanUseCase(&fakeSource{rows: rows}, store, &fakePublisher{}, m, c, nil)

	if ok, err := c.TryLock(context.Background(), "scan:lock:AAPL", time.Minute); err != nil || !ok {
		t.Fatalf("seed lock: ok=%v err=%v", ok, err)
	}
	if _, err := uc.Scan(context.Background(), scanReq(), "http"); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}

func TestScanSourceError(t *testing.T) {
	m := &fakeMetrics{}
	uc := NewScanUseCase(&fakeSource{err: errors.New("boom")}, &fakeResultStore{}, &fakePublisher{}, m, cache.NewMemoryCache(), nil)
	if _, err := uc.Scan(context.Background(), scanReq(), "http"); err == nil {
		t.Fatal("expected error from series source")
	}
	if len(m.errs) == 0 {
		t.Fatal("expected a recorded error")
	}
}

func TestScanPublishFailureIsNotFatal(t *testing.T) {
	rows := spikeRows(200, 150)
	store := &fakeResultStore{}
	pub := &fakePublisher{err: errors.New("kafka down")}
	uc := NewScanUseCase(&fakeSource{rows: rows}, store, pub, &fakeMetrics{}, cache.NewMemoryCache(), nil)

	if _, err := uc.Scan(context.Background(), scanReq(), "http"); err != nil {
		t.Fatalf("publish failure should not fail the scan: %v", err)
	}
	if len(store.flags) == 0 {
		t.Fatal("flags should still be persisted")
	}
}
