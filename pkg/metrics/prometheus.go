package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	staleResponses   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	actions          *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// New creates a Prometheus metrics recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		upstreamRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indicadores_upstream_requests_total",
				Help: "Total number of requests sent to the indicators API",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indicadores_upstream_request_duration_seconds",
				Help:    "Duration of indicators API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		staleResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indicadores_stale_responses_total",
				Help: "Responses discarded because the view changed while they were in flight",
			},
			[]string{"view"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indicadores_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		actions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indicadores_dashboard_actions_total",
				Help: "Dashboard actions performed by users",
			},
			[]string{"action"},
		),
		activeSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "indicadores_active_sessions",
				Help: "Number of live dashboard sessions",
			},
		),
	}
}

// RecordUpstream records one upstream call with its outcome ("ok" or "error").
func (r *Recorder) RecordUpstream(endpoint, outcome string, seconds float64) {
	r.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	r.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordStale counts a discarded response for a view.
func (r *Recorder) RecordStale(view string) {
	r.staleResponses.WithLabelValues(view).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAction counts a dashboard action.
func (r *Recorder) RecordAction(action string) {
	r.actions.WithLabelValues(action).Inc()
}

// SetActiveSessions sets the live session gauge.
func (r *Recorder) SetActiveSessions(n int) {
	r.activeSessions.Set(float64(n))
}
