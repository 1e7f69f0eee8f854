package appointments

import (
	"context"
	"time"

	"github.com/medibook/medibook-platform/internal/timeslot"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	PatientID string
	DoctorID  string
	Status    Status
	Limit     int
	Offset    int
}

// Repository persists appointments.
//
// CreateIfFree is the only write path for new appointments: it checks for a
// blocking appointment overlapping the requested slot and inserts in one
// atomic step, so two concurrent requests for the same slot can never both
// succeed. It returns ErrSlotTaken when the slot is held.
type Repository interface {
	CreateIfFree(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	// ListForDoctorDay returns the blocking appointments for one doctor on
	// one calendar date, ordered by slot start.
	ListForDoctorDay(ctx context.Context, doctorID string, date time.Time) ([]*Appointment, error)
	// UpdateStatus sets the status and, when notes is non-empty, replaces the
	// appointment notes.
	UpdateStatus(ctx context.Context, id string, status Status, notes string) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Appointment, error)
}

// blocks reports whether an existing appointment makes slot unavailable on
// date: same calendar day, blocking status, overlapping interval.
func blocks(existing *Appointment, date time.Time, slot timeslot.Interval) bool {
	if !existing.Status.Blocking() {
		return false
	}
	if !existing.Date.Equal(date) {
		return false
	}
	return existing.Slot.Overlaps(slot)
}
