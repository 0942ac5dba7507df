package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the reply backend.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RepliesTotal  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	LLMErrors     prometheus.Counter
	SharesTotal   *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg. Pass a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yvi_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yvi_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RepliesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yvi_replies_total",
				Help: "Chat replies by source",
			},
			[]string{"source"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yvi_pipeline_stage_duration_seconds",
				Help:    "Duration of each reply pipeline stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		LLMErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "yvi_llm_errors_total",
			Help: "LLM calls that failed and fell back to the canned reply",
		}),
		SharesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yvi_share_codes_total",
				Help: "Share codes encoded and decoded",
			},
			[]string{"op", "type"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
