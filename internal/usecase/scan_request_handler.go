package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"RetScan/internal/domain/models"
	drepo "RetScan/internal/domain/repository"
	pkgkafka "RetScan/pkg/kafka"
	applogger "RetScan/pkg/logger"
)

// ScanRequestHandler consumes scan requests from Kafka and runs the pipeline.
type ScanRequestHandler struct {
	topic   string
	scans   *ScanUseCase
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewScanRequestHandler(topic string, scans *ScanUseCase, metrics drepo.Metrics, l *applogger.Logger) *ScanRequestHandler {
	return &ScanRequestHandler{topic: topic, scans: scans, metrics: metrics, l: l}
}

func (h *ScanRequestHandler) Topic() string { return h.topic }

// incoming message schema matches the HTTP scan request body
func (h *ScanRequestHandler) Handle(ctx context.Context, b []byte) error {
	var req models.ScanRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if req.Ticker == "" {
		h.metrics.RecordError("consumer_bad_request")
		// Malformed business payload, do not retry.
		return nil
	}
	applyScanDefaults(&req)

	_, err := h.scans.Scan(ctx, req, "kafka")
	if errors.Is(err, ErrScanInProgress) {
		if h.l != nil {
			h.l.Warn("scan request skipped, ticker locked", applogger.String("ticker", req.Ticker))
		}
		return nil
	}
	return err
}

// applyScanDefaults mirrors the HTTP-layer request defaults for requests
// arriving over Kafka.
func applyScanDefaults(req *models.ScanRequest) {
	if req.Lookback == 0 {
		req.Lookback = defaultLookback
	}
	if req.Window == 0 {
		req.Window = 30
	}
	if req.Threshold == 0 {
		req.Threshold = 2.5
	}
	if req.TargetRate == 0 {
		req.TargetRate = 0.035
	}
}

var _ pkgkafka.MessageHandler = (*ScanRequestHandler)(nil)
