package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"RetScan/internal/domain/models"
	domrepo "RetScan/internal/domain/repository"
	pkgch "RetScan/pkg/clickhouse"
	applogger "RetScan/pkg/logger"
)

const (
	flagsTable       = "retscan.anomaly_flags"
	calibrationTable = "retscan.calibration_runs"
)

// CHResultStore implements ResultStore backed by ClickHouse.
type CHResultStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHResultStore(ch *pkgch.Client) *CHResultStore {
	return &CHResultStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHResultStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHResultStore) StoreFlags(ctx context.Context, rows []models.FlaggedRow) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.RunID,
				r.Row.Ticker,
				r.Row.Date,
				uint32(r.Index),
				r.Row.Return,
				r.Row.Volatility,
				r.Row.VolumeZ,
				boolFlag(r.Sliding),
				boolFlag(r.Robust),
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (run_id, ticker, date, idx, return, volatility, volume_z, sliding, robust) VALUES %s",
			flagsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_flags error", applogger.Error(err))
			}
			return fmt.Errorf("store flags: %w", err)
		}
	}
	return nil
}

func (s *CHResultStore) StoreCalibration(ctx context.Context, runID, ticker string, res models.CalibrationResult) error {
	trace, err := json.Marshal(res.Trace)
	if err != nil {
		return fmt.Errorf("marshal calibration trace: %w", err)
	}
	const q = `
        INSERT INTO ` + calibrationTable + `
        (run_id, ticker, threshold, rate, reason, trials, trace)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		runID, ticker, res.Threshold, res.Rate, string(res.Reason), uint32(len(res.Trace)), string(trace))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_calibration error",
				applogger.String("run_id", runID),
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store calibration: %w", err)
	}
	return nil
}

func (s *CHResultStore) QueryFlags(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.FlaggedRow, error) {
	const q = `
        SELECT run_id, ticker, date, idx, return, volatility, volume_z, sliding, robust
        FROM ` + flagsTable + `
        WHERE ticker = ? AND date >= ? AND date <= ?
        ORDER BY date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, ticker, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query flags: %w", err)
	}
	defer rows.Close()

	var out []models.FlaggedRow
	for rows.Next() {
		var (
			r               models.FlaggedRow
			idx             uint32
			sliding, robust uint8
		)
		if err := rows.Scan(&r.RunID, &r.Row.Ticker, &r.Row.Date, &idx,
			&r.Row.Return, &r.Row.Volatility, &r.Row.VolumeZ, &sliding, &robust); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		r.Index = int(idx)
		r.Sliding = sliding == 1
		r.Robust = robust == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.ResultStore = (*CHResultStore)(nil)
