package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal   *prometheus.CounterVec
	flaggedTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retscan_scans_total",
				Help: "Total number of detection runs",
			},
			[]string{"ticker", "trigger"},
		),
		flaggedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retscan_flagged_points_total",
				Help: "Total flagged points by detector",
			},
			[]string{"ticker", "detector"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "retscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScan records one completed detection run.
func (r *Recorder) RecordScan(ticker, trigger string) {
	r.scansTotal.WithLabelValues(ticker, trigger).Inc()
}

// RecordFlagged records how many points a detector flagged in one run.
func (r *Recorder) RecordFlagged(ticker, detector string, count int) {
	r.flaggedTotal.WithLabelValues(ticker, detector).Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
