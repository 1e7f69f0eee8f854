// Package appointments implements booking: conflict detection against the
// doctor's day, available-slot listing, and the appointment lifecycle.
package appointments

import (
	"strings"
	"time"

	"github.com/medibook/medibook-platform/internal/timeslot"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Blocking reports whether the appointment occupies its slot for conflict
// and slot-generation purposes.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Type classifies how the appointment is delivered.
type Type string

const (
	TypeInPerson     Type = "in-person"
	TypeTelemedicine Type = "telemedicine"
	TypeFollowUp     Type = "follow-up"
	TypeConsultation Type = "consultation"
)

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool {
	switch t {
	case TypeInPerson, TypeTelemedicine, TypeFollowUp, TypeConsultation:
		return true
	}
	return false
}

// PaymentStatus tracks the billing state. Payment processing itself happens
// off-platform; only the resulting state is recorded.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// SpecialRequirements captures accommodations requested at booking time.
type SpecialRequirements struct {
	Language      string `json:"language,omitempty"`
	Accessibility string `json:"accessibility,omitempty"`
	Other         string `json:"other,omitempty"`
}

// CalendarEvent records a sync of this appointment into an external calendar.
type CalendarEvent struct {
	Provider string    `json:"provider"` // "google", "outlook", "apple", "ical"
	EventID  string    `json:"eventId,omitempty"`
	HTMLLink string    `json:"htmlLink,omitempty"`
	SyncedAt time.Time `json:"syncedAt"`
}

// Appointment is a patient's booking of a doctor's time slot on a calendar
// day. Date carries no time-of-day component; the slot does.
type Appointment struct {
	ID                  string              `json:"id"`
	PatientID           string              `json:"patientId"`
	DoctorID            string              `json:"doctorId"`
	Date                time.Time           `json:"date"`
	Slot                timeslot.Interval   `json:"timeSlot"`
	DurationMinutes     int                 `json:"duration"`
	Type                Type                `json:"appointmentType"`
	Status              Status              `json:"status"`
	Reason              string              `json:"reason,omitempty"`
	Notes               string              `json:"notes,omitempty"`
	SpecialRequirements SpecialRequirements `json:"specialRequirements,omitempty"`
	PriceCents          int                 `json:"price"`
	PaymentStatus       PaymentStatus       `json:"paymentStatus"`
	Location            string              `json:"location,omitempty"`
	MeetingLink         string              `json:"meetingLink,omitempty"`
	CalendarEvents      []CalendarEvent     `json:"calendarEvents,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// StartsAt is the appointment's wall-clock start: date plus slot start.
func (a *Appointment) StartsAt() time.Time {
	return a.Date.Add(time.Duration(a.Slot.Start) * time.Minute)
}

// CreateRequest is the booking request body.
type CreateRequest struct {
	DoctorID            string              `json:"doctorId"`
	Date                string              `json:"date"` // ISO date, "2026-01-15"
	Slot                *timeslot.Interval  `json:"timeSlot"`
	DurationMinutes     int                 `json:"duration"`
	Type                Type                `json:"appointmentType"`
	Reason              string              `json:"reason"`
	SpecialRequirements SpecialRequirements `json:"specialRequirements"`
	Location            string              `json:"location"`
}

// Validate checks required fields and fills defaults. The parsed date is
// returned normalized to midnight UTC.
func (r *CreateRequest) Validate() (time.Time, error) {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.Reason = strings.TrimSpace(r.Reason)

	if r.DoctorID == "" || r.Date == "" || r.Slot == nil || r.Reason == "" {
		return time.Time{}, ErrMissingFields
	}

	date, err := time.ParseInLocation(time.DateOnly, r.Date, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	if r.Type == "" {
		r.Type = TypeConsultation
	}
	if !r.Type.Valid() {
		return time.Time{}, ErrInvalidType
	}

	if r.DurationMinutes == 0 {
		r.DurationMinutes = r.Slot.Minutes()
	}
	if r.DurationMinutes != r.Slot.Minutes() {
		return time.Time{}, ErrDurationMismatch
	}

	return date, nil
}
