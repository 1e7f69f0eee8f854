package appointments

import "errors"

// Validation errors (surfaced as 400).
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidType      = errors.New("invalid appointment type")
	ErrDurationMismatch = errors.New("duration must match the time slot span")
	ErrPastDate         = errors.New("cannot book appointments in the past")
	ErrSelfBooking      = errors.New("cannot book appointment with yourself")
	ErrNoAvailability   = errors.New("doctor has no availability on this date")

	// ErrInvalidStatus is returned for an unknown target status.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrPatientTransition is returned when a patient requests anything but a cancellation.
	ErrPatientTransition = errors.New("patients can only cancel appointments")
	// ErrDoctorTransition is returned when a doctor requests a disallowed target.
	ErrDoctorTransition = errors.New("invalid status change for doctor")
	// ErrTerminalStatus is returned for transitions out of a terminal state.
	ErrTerminalStatus = errors.New("appointment status can no longer change")
	// ErrNotPending is returned when deleting an appointment past pending.
	ErrNotPending = errors.New("can only delete pending appointments")
)

// Lookup and permission errors.
var (
	// ErrDoctorNotFound is returned when the doctor id does not reference a
	// user with the doctor role (404).
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrAppointmentNotFound is returned when no appointment matches the id (404).
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrAccessDenied is returned when the actor is neither the booking
	// patient nor the assigned doctor (403).
	ErrAccessDenied = errors.New("access denied")
)

// ErrSlotTaken is returned when the requested interval overlaps an existing
// pending or confirmed appointment for the same doctor and date (409).
var ErrSlotTaken = errors.New("time slot not available")
