// Package metrics holds the registration workflow collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeRegistered = "registered"
	OutcomeInvalid    = "invalid"
	OutcomeIneligible = "ineligible"
	OutcomeFailed     = "failed"
)

type Metrics struct {
	Registrations  *prometheus.CounterVec
	WriterDuration *prometheus.HistogramVec
	Compensations  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jesa_registrations_total",
			Help: "Registration submissions by variant and outcome",
		}, []string{"variant", "outcome"}),
		WriterDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jesa_registration_write_duration_seconds",
			Help:    "Duration of the base/detail/link write sequence",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"variant", "mode"}),
		Compensations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jesa_registration_compensations_total",
			Help: "Compensating deletes after a failed write, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementRegistration(variant, outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(variant, outcome).Inc()
}

func (m *Metrics) ObserveWrite(variant, mode string, seconds float64) {
	if m == nil {
		return
	}
	m.WriterDuration.WithLabelValues(variant, mode).Observe(seconds)
}

func (m *Metrics) IncrementCompensation(result string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(result).Inc()
}
