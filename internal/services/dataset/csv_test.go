package dataset

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"RetScan/internal/domain/models"
)

func sampleRows() []models.FeatureRow {
	return []models.FeatureRow{
		{
			Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Ticker:     "AAPL",
			Close:      180.5,
			Return:     0.012,
			Volatility: 0.008,
			VolumeZ:    1.4,
		},
		{
			Date:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Ticker:     "AAPL",
			Close:      175.25,
			Return:     -0.029,
			Volatility: 0.011,
			VolumeZ:    3.2,
		},
	}
}

func TestFeatureRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFeatureRows(&buf, sampleRows()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFeatureRows(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := sampleRows()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Ticker != want[i].Ticker ||
			got[i].Return != want[i].Return || got[i].VolumeZ != want[i].VolumeZ {
			t.Fatalf("row %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadRejectsWrongHeader(t *testing.T) {
	in := "Date,Symbol,Close,Daily Return,Volatility,Volume Z-Score\n"
	if _, err := ReadFeatureRows(strings.NewReader(in)); err == nil {
		t.Fatal("expected header mismatch error")
	}
}

func TestReadRejectsBadValues(t *testing.T) {
	in := strings.Join([]string{
		"Date,Ticker,Close,Daily Return,Volatility,Volume Z-Score",
		"2024-03-01,AAPL,oops,0.01,0.02,1.1",
		"",
	}, "\n")
	if _, err := ReadFeatureRows(strings.NewReader(in)); err == nil {
		t.Fatal("expected parse error for non-numeric close")
	}
	in = strings.Join([]string{
		"Date,Ticker,Close,Daily Return,Volatility,Volume Z-Score",
		"03/01/2024,AAPL,100,0.01,0.02,1.1",
		"",
	}, "\n")
	if _, err := ReadFeatureRows(strings.NewReader(in)); err == nil {
		t.Fatal("expected parse error for bad date format")
	}
}

func TestWriteAnomalyRows(t *testing.T) {
	var buf bytes.Buffer
	flags := models.NewLabelSet([]int{1})
	if err := WriteAnomalyRows(&buf, sampleRows(), flags); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[1], ",0") {
		t.Fatalf("row 0 should not be flagged: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",1") {
		t.Fatalf("row 1 should be flagged: %q", lines[2])
	}
	if !strings.HasPrefix(lines[0], "Date,Ticker,") || !strings.HasSuffix(lines[0], ",Anomaly") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestWriteClusterRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClusterRows(&buf, sampleRows(), []int{0, -1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasSuffix(lines[0], ",Cluster") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",0") || !strings.HasSuffix(lines[2], ",-1") {
		t.Fatalf("unexpected labels: %q / %q", lines[1], lines[2])
	}
}

func TestWriteClusterRowsLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClusterRows(&buf, sampleRows(), []int{0}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
