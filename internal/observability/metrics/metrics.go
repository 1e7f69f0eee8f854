package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for appointment flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	conflictsTotal     prometheus.Counter
	transitionsTotal   *prometheus.CounterVec
	slotGenLatency     prometheus.Histogram
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"type", "outcome"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "slot_conflicts_total",
			Help:      "Total bookings rejected because the slot was held",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"to", "role"}),
		slotGenLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medibook",
			Subsystem: "appointments",
			Name:      "availability_latency_seconds",
			Help:      "Latency of availability computation",
			Buckets:   prometheus.DefBuckets,
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medibook",
			Subsystem: "notifications",
			Name:      "dispatched_total",
			Help:      "Total notifications dispatched",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.transitionsTotal, m.slotGenLatency, m.notificationsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(apptType, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(apptType, outcome).Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveTransition(to, role string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to, role).Inc()
}

func (m *BookingMetrics) ObserveAvailabilityLatency(seconds float64) {
	if m == nil {
		return
	}
	m.slotGenLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(channel, status).Inc()
}
