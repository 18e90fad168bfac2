package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks reconciliation pass outcomes.
type Metrics struct {
	OpenPublications      prometheus.Gauge
	ClosedPublications    prometheus.Counter
	DerivedMovimentations prometheus.Counter
	ItemFailures          *prometheus.CounterVec
}

// NewMetrics registers and returns the reconciliation metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		OpenPublications: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pretor_reconcile_open_publications",
			Help: "Open publications seen on the most recent registry fetch",
		}),

		ClosedPublications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pretor_reconcile_closed_publications_total",
			Help: "Total publications detected as closed",
		}),

		DerivedMovimentations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pretor_reconcile_derived_movimentations_total",
			Help: "Total movimentations derived from closed publications",
		}),

		ItemFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pretor_reconcile_item_failures_total",
			Help: "Total per-item failures absorbed during reconciliation fan-out",
		}, []string{"stage"}),
	}
}

// SetOpenPublications records the size of the fresh open set.
func (m *Metrics) SetOpenPublications(n int) {
	if m != nil {
		m.OpenPublications.Set(float64(n))
	}
}

// IncrementClosed records one closed publication.
func (m *Metrics) IncrementClosed() {
	if m != nil {
		m.ClosedPublications.Inc()
	}
}

// IncrementDerived records one derived movimentation.
func (m *Metrics) IncrementDerived() {
	if m != nil {
		m.DerivedMovimentations.Inc()
	}
}

// IncrementItemFailure records one absorbed per-item failure.
func (m *Metrics) IncrementItemFailure(stage string) {
	if m != nil {
		m.ItemFailures.WithLabelValues(stage).Inc()
	}
}
