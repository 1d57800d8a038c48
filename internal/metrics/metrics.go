// Package metrics holds the Prometheus collectors for the ingestion API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion sources.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Rejection reasons.
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
	ReasonStorage = "storage"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	saved        *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensores_readings_saved_total",
			Help: "Readings persisted, by ingestion source.",
		}, []string{"source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensores_readings_rejected_total",
			Help: "Readings not persisted, by ingestion source and reason.",
		}, []string{"source", "reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensores_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sensores_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	m.registry.MustRegister(
		m.saved,
		m.rejected,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ReadingSaved counts a persisted reading.
func (m *Metrics) ReadingSaved(source string) {
	m.saved.WithLabelValues(source).Inc()
}

// ReadingRejected counts a reading that failed validation or storage.
func (m *Metrics) ReadingRejected(source, reason string) {
	m.rejected.WithLabelValues(source, reason).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
