// Package notifications fans appointment events out to the people involved:
// in-app notifications for both parties, email to the patient, and timed
// reminders ahead of the appointment.
package notifications

import "time"

// Kind classifies what a notification is about.
type Kind string

const (
	KindBooked    Kind = "appointment-booked"
	KindConfirmed Kind = "appointment-confirmed"
	KindCancelled Kind = "appointment-cancelled"
	KindCompleted Kind = "appointment-completed"
	KindNoShow    Kind = "appointment-no-show"
	KindReminder  Kind = "appointment-reminder"
)

// Priority orders notifications in client inboxes.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is one in-app inbox entry. Reminders are created with a
// future ScheduledFor and delivered by the worker when due; everything else
// is delivered immediately.
type Notification struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Kind          Kind              `json:"type"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	AppointmentID string            `json:"appointmentId,omitempty"`
	Priority      Priority          `json:"priority"`
	Read          bool              `json:"read"`
	ScheduledFor  *time.Time        `json:"scheduledFor,omitempty"`
	SentAt        *time.Time        `json:"sentAt,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Pending reports whether the notification is a reminder still waiting for
// its delivery time.
func (n *Notification) Pending() bool {
	return n.ScheduledFor != nil && n.SentAt == nil
}
