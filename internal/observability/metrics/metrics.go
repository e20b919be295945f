package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for appointment transitions.
type BookingMetrics struct {
	transitionsTotal  *prometheus.CounterVec
	slotConflictTotal prometheus.Counter
	loginsTotal       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docspot",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Appointment transitions by kind and outcome",
		}, []string{"transition", "status"}),
		slotConflictTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docspot",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected because the slot was no longer available",
		}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docspot",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome",
		}, []string{"role", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.slotConflictTotal, m.loginsTotal)
	return m
}

// ObserveTransition records a book/cancel/complete outcome.
func (m *BookingMetrics) ObserveTransition(transition, status string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(transition, status).Inc()
}

// ObserveSlotConflict records a booking lost to an occupied slot.
func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflictTotal.Inc()
}

// ObserveLogin records a login attempt.
func (m *BookingMetrics) ObserveLogin(role, status string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(role, status).Inc()
}
