package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())
	m.ObserveBooking("consultation", "created")
	m.ObserveConflict()
	m.ObserveTransition("confirmed", "doctor")
	m.ObserveAvailabilityLatency(0.02)
	m.ObserveNotification("email", "sent")
}

func TestBookingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveBooking("telemedicine", "conflict")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("consultation", "created")
	m.ObserveConflict()
	m.ObserveTransition("cancelled", "patient")
	m.ObserveAvailabilityLatency(0.1)
	m.ObserveNotification("in-app", "sent")
}
