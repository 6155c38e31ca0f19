// Package metrics holds process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds HTTP-level collectors shared by every router.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
	PanicsRecovered prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jesa_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		PanicsRecovered: f.NewCounter(prometheus.CounterOpts{
			Name: "jesa_http_panics_recovered_total",
			Help: "Total number of handler panics converted into 500 responses",
		}),
	}
}

// ObserveLatency records one request.
func (m *Metrics) ObserveLatency(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(route, method, status).Observe(seconds)
}

// IncrementPanics counts a recovered panic.
func (m *Metrics) IncrementPanics() {
	if m == nil {
		return
	}
	m.PanicsRecovered.Inc()
}
