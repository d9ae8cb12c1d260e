package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "RetScan/internal/domain/models"
	drepo "RetScan/internal/domain/repository"
	icache "RetScan/internal/service/cache"
	"RetScan/internal/service/metrics"
	"RetScan/internal/service/ratelimit"
	"RetScan/internal/services/anomaly"
	"RetScan/internal/usecase"
	pkgcache "RetScan/pkg/cache"
	xhttp "RetScan/pkg/http"
	xlogger "RetScan/pkg/logger"
	"RetScan/pkg/util"
)

// DetectionHandler exposes the detection pipeline over HTTP.
type DetectionHandler struct {
	logger   *xlogger.Logger
	scans    *usecase.ScanUseCase
	clusters *usecase.ClusterUseCase
	results  drepo.ResultStore
	cache    icache.BytesCache
	rl       *ratelimit.Limiter

	ingest         *usecase.IngestUseCase
	defaultTickers []string
}

func NewDetectionHandler(
	logger *xlogger.Logger,
	scans *usecase.ScanUseCase,
	clusters *usecase.ClusterUseCase,
	results drepo.ResultStore,
) *DetectionHandler {
	metrics.Register()
	return &DetectionHandler{
		logger:   logger,
		scans:    scans,
		clusters: clusters,
		results:  results,
		rl:       ratelimit.New(),
	}
}

// SetCache injects a byte cache for read endpoints.
func (h *DetectionHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetIngest enables the ingest endpoint, with fallback tickers for requests
// that name none.
func (h *DetectionHandler) SetIngest(ing *usecase.IngestUseCase, defaultTickers []string) {
	h.ingest = ing
	h.defaultTickers = defaultTickers
}

func (h *DetectionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.POST("/calibrate", h.Calibrate)
	g.POST("/compare", h.Compare)
	g.POST("/clusters", h.Clusters)
	g.GET("/anomalies", h.Anomalies)
	g.POST("/ingest", h.Ingest)
}

func (h *DetectionHandler) Scan(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.DetectionLatency.WithLabelValues("scan").Observe(time.Since(start).Seconds())
	}()

	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":scan", 5, 2) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	res, err := h.scans.Scan(c.Request().Context(), *req, "http")
	if err != nil {
		if errors.Is(err, usecase.ErrScanInProgress) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		metrics.DetectionErrors.WithLabelValues("scan").Inc()
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DetectionHandler) Calibrate(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.DetectionLatency.WithLabelValues("calibrate").Observe(time.Since(start).Seconds())
	}()

	req := &models.CalibrateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scans.Calibrate(c.Request().Context(), *req)
	if err != nil {
		metrics.DetectionErrors.WithLabelValues("calibrate").Inc()
		h.logger.Error("calibrate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DetectionHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	report := anomaly.Compare(models.NewLabelSet(req.SetA), models.NewLabelSet(req.SetB), req.N)
	return xhttp.SuccessResponse(c, report)
}

func (h *DetectionHandler) Clusters(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.DetectionLatency.WithLabelValues("clusters").Observe(time.Since(start).Seconds())
	}()

	req := &models.ClusterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	lookback := util.ParseIntDefault(c.QueryParam("lookback"), 250)
	res, err := h.clusters.Cluster(c.Request().Context(), *req, lookback)
	if err != nil {
		metrics.DetectionErrors.WithLabelValues("clusters").Inc()
		h.logger.Error("clusters usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DetectionHandler) Anomalies(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.DetectionLatency.WithLabelValues("anomalies").Observe(time.Since(start).Seconds())
	}()

	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.AddDate(-1, 0, 0))
	to := util.ParseTimeDefault(req.To, now)
	from, to = util.AlignDays(from, to)

	cacheKey := pkgcache.GenerateKeyWithParams("anomalies", req.Ticker, from.Format(util.DateLayout), to.Format(util.DateLayout))
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	rows, err := h.results.QueryFlags(c.Request().Context(), req.Ticker, from, to, req.Limit)
	if err != nil {
		metrics.DetectionErrors.WithLabelValues("anomalies").Inc()
		h.logger.Error("anomalies query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	body := anomaliesResponse{
		Ticker: req.Ticker,
		From:   from.Format(util.DateLayout),
		To:     to.Format(util.DateLayout),
		Count:  len(rows),
		Rows:   rows,
	}
	if h.cache != nil {
		// Cache the full envelope so hits and misses serve identical bytes.
		envelope := xhttp.APIResponse{
			Status:  http.StatusOK,
			Message: http.StatusText(http.StatusOK),
			Data:    body,
		}
		if b, err := json.Marshal(envelope); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 30*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *DetectionHandler) Ingest(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.DetectionLatency.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
	}()

	if h.ingest == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ingestion not configured")
	}
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":ingest", 2, 0.5) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.defaultTickers
	}
	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.AddDate(-1, 0, 0))
	to := util.ParseTimeDefault(req.To, now)

	total, err := h.ingest.IngestAll(c.Request().Context(), tickers, from, to)
	if err != nil {
		metrics.DetectionErrors.WithLabelValues("ingest").Inc()
		h.logger.Error("ingest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"tickers": len(tickers),
		"bars":    total,
	})
}

type anomaliesResponse struct {
	Ticker string              `json:"ticker"`
	From   string              `json:"from"`
	To     string              `json:"to"`
	Count  int                 `json:"count"`
	Rows   []models.FlaggedRow `json:"rows"`
}
