package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AppointmentEvent("APPOINTMENT_CREATED")
	m.AppointmentEvent("APPOINTMENT_CREATED")
	m.Notification(ResultStored)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.appointmentEvents.WithLabelValues("APPOINTMENT_CREATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues(ResultStored)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AppointmentEvent("x")
		m.Notification(ResultFailed)
	})
}
