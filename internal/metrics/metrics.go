// Package metrics exposes Prometheus instruments for the lease sagas and
// the collaborator calls they make.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the lease component's instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	SagaTotal            *prometheus.CounterVec
	CollaboratorRequests *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SagaTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lease_saga_total",
			Help: "Lease sagas by saga name and outcome (success, partial_success, aborted).",
		}, []string{"saga", "outcome"}),
		CollaboratorRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lease_collaborator_requests_total",
			Help: "Collaborator calls by collaborator, operation and result kind.",
		}, []string{"collaborator", "operation", "result"}),
		CollaboratorDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lease_collaborator_request_duration_seconds",
			Help:    "Collaborator call latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"collaborator", "operation"}),
	}
}

func (m *Metrics) ObserveSaga(saga, outcome string) {
	if m == nil {
		return
	}
	m.SagaTotal.WithLabelValues(saga, outcome).Inc()
}

// ObserveCall records one collaborator call. result is "ok" or an error kind.
func (m *Metrics) ObserveCall(collaborator, operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CollaboratorRequests.WithLabelValues(collaborator, operation, result).Inc()
	m.CollaboratorDuration.WithLabelValues(collaborator, operation).Observe(elapsed.Seconds())
}
