// Package metrics provides observability for registry calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registry call outcomes and the re-authentication rate.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	CallFailures *prometheus.CounterVec
	Reauths      prometheus.Counter
}

// New registers and returns the registry metrics.
func New() *Metrics {
	return &Metrics{
		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pretor_registry_call_duration_seconds",
			Help:    "Duration of registry portal calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),

		CallFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pretor_registry_call_failures_total",
			Help: "Total registry call failures by operation and category",
		}, []string{"op", "category"}),

		Reauths: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pretor_registry_reauths_total",
			Help: "Total session re-authentications triggered by stale-session errors",
		}),
	}
}

// ObserveCall records the duration of a registry call.
func (m *Metrics) ObserveCall(op string, d time.Duration) {
	if m != nil {
		m.CallDuration.WithLabelValues(op).Observe(d.Seconds())
	}
}

// IncrementFailure records a failed registry call.
func (m *Metrics) IncrementFailure(op, category string) {
	if m != nil {
		m.CallFailures.WithLabelValues(op, category).Inc()
	}
}

// IncrementReauth records a stale-session re-authentication.
func (m *Metrics) IncrementReauth() {
	if m != nil {
		m.Reauths.Inc()
	}
}
