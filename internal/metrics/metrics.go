// Package metrics exposes Prometheus metrics for the portal service layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New creates and registers the portal metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total HTTP requests handled, by method, route and status.",
		}, []string{"service", "method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service", "method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_http_in_flight_requests",
			Help: "HTTP requests currently being served.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_upstream_requests_total",
			Help: "Requests to the external API gateway, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_upstream_request_duration_seconds",
			Help:    "External API gateway round-trip duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.inFlight,
		m.upstreamRequests,
		m.upstreamDuration,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks one more request in flight.
func (m *Metrics) IncrementInFlight() { m.inFlight.Inc() }

// DecrementInFlight marks one request finished.
func (m *Metrics) DecrementInFlight() { m.inFlight.Dec() }

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one call to the external API gateway.
// Outcome is "success" or "error".
func (m *Metrics) RecordUpstreamRequest(operation, outcome string, duration time.Duration) {
	m.upstreamRequests.WithLabelValues(operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
