package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session lifecycle metrics
	SessionOperationsTotal *prometheus.CounterVec

	// Credential validation metrics
	StrategyResultsTotal *prometheus.CounterVec

	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botlist_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botlist_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SessionOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botlist_session_operations_total",
				Help: "Session lifecycle operations by outcome",
			},
			[]string{"operation", "result"},
		),
		StrategyResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botlist_credential_validations_total",
				Help: "Credential validations by strategy and result kind",
			},
			[]string{"strategy", "result"},
		),
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botlist_provider_requests_total",
				Help: "Outbound OAuth provider requests",
			},
			[]string{"call", "result"},
		),
		ProviderRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botlist_provider_request_duration_seconds",
				Help:    "Outbound OAuth provider latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"call"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionOperationsTotal,
		m.StrategyResultsTotal,
		m.ProviderRequestsTotal,
		m.ProviderRequestDuration,
	)
	return m
}

// NewNop returns Metrics on a private registry, for tests and optional wiring.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome converts an error into a result label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSession counts one lifecycle operation.
func (m *Metrics) RecordSession(operation string, err error) {
	if m == nil {
		return
	}
	m.SessionOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// RecordStrategy counts one credential validation. result is "ok" or an error kind.
func (m *Metrics) RecordStrategy(strategy, result string) {
	if m == nil {
		return
	}
	m.StrategyResultsTotal.WithLabelValues(strategy, result).Inc()
}

// ObserveProvider records one outbound provider call.
func (m *Metrics) ObserveProvider(call string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(call, Outcome(err)).Inc()
	m.ProviderRequestDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}

// Instrument wraps next with request counting and latency.
func (m *Metrics) Instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.Pattern).Observe(time.Since(start).Seconds())
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.Pattern, strconv.Itoa(sw.code)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
