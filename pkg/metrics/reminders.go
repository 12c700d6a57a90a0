package metrics

import "github.com/prometheus/client_golang/prometheus"

// Notification delivery outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// ReminderMetrics counts alerts raised and notifications attempted.
type ReminderMetrics struct {
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dispatched    prometheus.Counter
}

// NewReminderMetrics registers reminder counters on reg. A nil registerer
// yields a no-op recorder.
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	if reg == nil {
		return &ReminderMetrics{}
	}
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "alerts_created_total",
		Help:      "Alerts persisted by type.",
	}, []string{"type"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "notifications_total",
		Help:      "Notification attempts by kind and outcome.",
	}, []string{"kind", "outcome"})
	dispatched := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "dosage_triggers_fired_total",
		Help:      "Dosage triggers fired by the dispatcher.",
	})
	reg.MustRegister(alerts, notifications, dispatched)
	return &ReminderMetrics{alerts: alerts, notifications: notifications, dispatched: dispatched}
}

// IncAlert counts one persisted alert of the given type.
func (m *ReminderMetrics) IncAlert(alertType string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

// IncNotification counts one notification attempt.
func (m *ReminderMetrics) IncNotification(kind, outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// IncDispatched counts one fired dosage trigger.
func (m *ReminderMetrics) IncDispatched() {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.Inc()
}
