package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"RetScan/internal/domain/models"
)

const dateLayout = "2006-01-02"

var featureHeader = []string{
	"Date", "Ticker", "Close", "Daily Return", "Volatility", "Volume Z-Score",
}

var anomalyHeader = []string{
	"Date", "Ticker", "Close", "Daily Return", "Volatility", "Volume Z-Score", "Anomaly",
}

var clusterHeader = []string{
	"Date", "Ticker", "Close", "Daily Return", "Volatility", "Volume Z-Score", "Cluster",
}

// ReadFeatureRows parses a feature CSV produced by WriteFeatureRows. The
// header row is validated so schema drift fails loudly instead of yielding
// shifted columns.
func ReadFeatureRows(r io.Reader) ([]models.FeatureRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(featureHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read feature header: %w", err)
	}
	for i, want := range featureHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected feature column %d: got %q, want %q", i, header[i], want)
		}
	}

	var rows []models.FeatureRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feature row: %w", err)
		}
		row, err := parseFeatureRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteFeatureRows writes the canonical feature CSV.
func WriteFeatureRows(w io.Writer, rows []models.FeatureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(featureHeader); err != nil {
		return fmt.Errorf("write feature header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(featureRecord(row)); err != nil {
			return fmt.Errorf("write feature row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnomalyRows writes the feature CSV extended with a 0/1 anomaly column.
// flags must hold one label per row index.
func WriteAnomalyRows(w io.Writer, rows []models.FeatureRow, flags models.LabelSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(anomalyHeader); err != nil {
		return fmt.Errorf("write anomaly header: %w", err)
	}
	for i, row := range rows {
		rec := featureRecord(row)
		mark := "0"
		if flags.Contains(i) {
			mark = "1"
		}
		if err := cw.Write(append(rec, mark)); err != nil {
			return fmt.Errorf("write anomaly row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClusterRows writes the feature CSV extended with a cluster label
// column. labels must hold one entry per row; -1 marks noise.
func WriteClusterRows(w io.Writer, rows []models.FeatureRow, labels []int) error {
	if len(labels) != len(rows) {
		return fmt.Errorf("cluster labels: got %d, want %d", len(labels), len(rows))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(clusterHeader); err != nil {
		return fmt.Errorf("write cluster header: %w", err)
	}
	for i, row := range rows {
		rec := append(featureRecord(row), strconv.Itoa(labels[i]))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write cluster row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseFeatureRecord(rec []string) (models.FeatureRow, error) {
	date, err := time.Parse(dateLayout, rec[0])
	if err != nil {
		return models.FeatureRow{}, fmt.Errorf("parse date %q: %w", rec[0], err)
	}
	vals := make([]float64, 4)
	for i, idx := range []int{2, 3, 4, 5} {
		v, err := strconv.ParseFloat(rec[idx], 64)
		if err != nil {
			return models.FeatureRow{}, fmt.Errorf("parse column %q: %w", featureHeader[idx], err)
		}
		vals[i] = v
	}
	return models.FeatureRow{
		Date:       date,
		Ticker:     rec[1],
		Close:      vals[0],
		Return:     vals[1],
		Volatility: vals[2],
		VolumeZ:    vals[3],
	}, nil
}

func featureRecord(row models.FeatureRow) []string {
	return []string{
		row.Date.Format(dateLayout),
		row.Ticker,
		strconv.FormatFloat(row.Close, 'f', -1, 64),
		strconv.FormatFloat(row.Return, 'f', -1, 64),
		strconv.FormatFloat(row.Volatility, 'f', -1, 64),
		strconv.FormatFloat(row.VolumeZ, 'f', -1, 64),
	}
}
