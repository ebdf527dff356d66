package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "counsel"

// Notification outcomes.
const (
	ResultStored  = "stored"
	ResultFailed  = "failed"
	ResultEmailed = "emailed"
	ResultMailErr = "email_failed"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	appointmentEvents *prometheus.CounterVec
	notifications     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appointmentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_events_total",
			Help:      "Appointment lifecycle events by notification type.",
		}, []string{"event"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.appointmentEvents, m.notifications)
	return m
}

func (m *Metrics) AppointmentEvent(event string) {
	if m == nil {
		return
	}
	m.appointmentEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

// Handler exposes the gatherer in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
