package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notification creation and delivery outcomes.
type Metrics struct {
	Created      *prometheus.CounterVec
	SendAttempts *prometheus.CounterVec
	Suppressed   prometheus.Counter
}

// NewMetrics registers and returns the notification metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pretor_notifications_created_total",
			Help: "Total notifications created by kind",
		}, []string{"kind"}),

		SendAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pretor_notification_send_attempts_total",
			Help: "Total send attempts by channel outcome",
		}, []string{"outcome"}),

		Suppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pretor_notifications_suppressed_total",
			Help: "Total notifications suppressed by movimentation sub-variant",
		}),
	}
}

// IncrementCreated records one created notification.
func (m *Metrics) IncrementCreated(kind Kind) {
	if m != nil {
		m.Created.WithLabelValues(string(kind)).Inc()
	}
}

// IncrementSendAttempt records one send attempt and its outcome.
func (m *Metrics) IncrementSendAttempt(outcome Outcome) {
	if m != nil {
		m.SendAttempts.WithLabelValues(string(outcome)).Inc()
	}
}

// IncrementSuppressed records one suppressed notification.
func (m *Metrics) IncrementSuppressed() {
	if m != nil {
		m.Suppressed.Inc()
	}
}
