package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"RetScan/internal/domain/models"
	"RetScan/internal/services/dataset"
)

func writeDatasetFile(t *testing.T, dir, ticker string, rows []models.FeatureRow) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, ticker+".csv"))
	if err != nil {
		t.Fatalf("create dataset file: %v", err)
	}
	defer f.Close()
	if err := dataset.WriteFeatureRows(f, rows); err != nil {
		t.Fatalf("write dataset file: %v", err)
	}
}

func TestCSVSeriesSourceTrimsToLastN(t *testing.T) {
	dir := t.TempDir()
	rows := make([]models.FeatureRow, 5)
	for i := range rows {
		rows[i] = models.FeatureRow{
			Date:   time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Ticker: "AAPL",
			Close:  100 + float64(i),
			Return: float64(i) * 0.01,
		}
	}
	writeDatasetFile(t, dir, "AAPL", rows)

	src := NewCSVSeriesSource(dir)
	got, err := src.Returns(context.Background(), "AAPL", 3)
	if err != nil {
		t.Fatalf("returns: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].Return != 0.02 || got[2].Return != 0.04 {
		t.Fatalf("expected last 3 rows, got first return %v last %v", got[0].Return, got[2].Return)
	}
}

func TestCSVSeriesSourceMissingFile(t *testing.T) {
	src := NewCSVSeriesSource(t.TempDir())
	if _, err := src.Returns(context.Background(), "MSFT", 10); err == nil {
		t.Fatal("expected error for missing dataset file")
	}
}

func TestCSVSeriesSourceValidation(t *testing.T) {
	src := NewCSVSeriesSource(t.TempDir())
	if _, err := src.Returns(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty ticker")
	}
	if _, err := src.Returns(context.Background(), "AAPL", 0); err == nil {
		t.Fatal("expected error for non-positive lookback")
	}
}
