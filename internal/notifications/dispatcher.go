package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/medibook/medibook-platform/internal/appointments"
	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// UserDirectory is the slice of the user store the dispatcher needs to
// address people by name and email.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// DefaultReminderLeads are how far ahead of the appointment reminders fire.
var DefaultReminderLeads = []time.Duration{24 * time.Hour, 2 * time.Hour}

// Dispatcher turns appointment events into in-app notifications, patient
// emails, and scheduled reminders. It implements the notifier port of the
// appointments service.
type Dispatcher struct {
	repo    Repository
	users   UserDirectory
	email   EmailSender // nil disables email
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	leads   []time.Duration
	now     func() time.Time
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEmailSender attaches an email channel.
func WithEmailSender(sender EmailSender) DispatcherOption {
	return func(d *Dispatcher) { d.email = sender }
}

// WithMetrics attaches notification metrics. Nil metrics are safe.
func WithMetrics(m *metrics.BookingMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithReminderLeads overrides how far ahead reminders fire.
func WithReminderLeads(leads []time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if len(leads) > 0 {
			d.leads = leads
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDispatcher(repo Repository, userDir UserDirectory, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if repo == nil {
		panic("notifications: repository required")
	}
	if userDir == nil {
		panic("notifications: user directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		repo:   repo,
		users:  userDir,
		logger: logger,
		leads:  DefaultReminderLeads,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func describeSlot(appt *appointments.Appointment) string {
	return fmt.Sprintf("%s at %s", appt.Date.Format("Monday, 2 January 2006"), appt.Slot.Start.String())
}

// AppointmentBooked notifies both parties of a new booking and schedules the
// patient's reminders. Reminders whose fire time has already passed are
// skipped rather than delivered late.
func (d *Dispatcher) AppointmentBooked(ctx context.Context, appt *appointments.Appointment) error {
	when := describeSlot(appt)

	if err := d.deliver(ctx, &Notification{
		UserID:        appt.DoctorID,
		Kind:          KindBooked,
		Title:         "New appointment request",
		Message:       fmt.Sprintf("A patient requested an appointment on %s.", when),
		AppointmentID: appt.ID,
		Priority:      PriorityHigh,
	}); err != nil {
		return err
	}

	if err := d.deliver(ctx, &Notification{
		UserID:        appt.PatientID,
		Kind:          KindBooked,
		Title:         "Appointment requested",
		Message:       fmt.Sprintf("Your appointment on %s is awaiting confirmation.", when),
		AppointmentID: appt.ID,
	}); err != nil {
		return err
	}

	d.scheduleReminders(ctx, appt)
	d.emailPatient(ctx, appt, "Appointment requested",
		fmt.Sprintf("Your appointment on %s has been requested and is awaiting the doctor's confirmation.", when))
	return nil
}

// AppointmentStatusChanged notifies the party who did not make the change,
// emails the patient on confirmation and cancellation, and drops pending
// reminders once the appointment leaves the calendar.
func (d *Dispatcher) AppointmentStatusChanged(ctx context.Context, appt *appointments.Appointment, previous appointments.Status, actor appointments.Actor) error {
	when := describeSlot(appt)

	kind, title, message := statusNotice(appt.Status, when)
	if kind == "" {
		return nil
	}

	recipients := []string{appt.PatientID, appt.DoctorID}
	for _, userID := range recipients {
		if userID == actor.ID {
			continue
		}
		if err := d.deliver(ctx, &Notification{
			UserID:        userID,
			Kind:          kind,
			Title:         title,
			Message:       message,
			AppointmentID: appt.ID,
			Priority:      priorityFor(appt.Status),
		}); err != nil {
			return err
		}
	}

	switch appt.Status {
	case appointments.StatusConfirmed:
		d.emailPatient(ctx, appt, title, message)
	case appointments.StatusCancelled:
		d.emailPatient(ctx, appt, title, message)
		d.dropReminders(ctx, appt.ID)
	case appointments.StatusCompleted, appointments.StatusNoShow:
		d.dropReminders(ctx, appt.ID)
	}
	return nil
}

func statusNotice(status appointments.Status, when string) (Kind, string, string) {
	switch status {
	case appointments.StatusConfirmed:
		return KindConfirmed, "Appointment confirmed",
			fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case appointments.StatusCancelled:
		return KindCancelled, "Appointment cancelled",
			fmt.Sprintf("The appointment on %s has been cancelled.", when)
	case appointments.StatusCompleted:
		return KindCompleted, "Appointment completed",
			fmt.Sprintf("The appointment on %s was marked completed.", when)
	case appointments.StatusNoShow:
		return KindNoShow, "Missed appointment",
			fmt.Sprintf("The appointment on %s was marked as a no-show.", when)
	default:
		return "", "", ""
	}
}

func priorityFor(status appointments.Status) Priority {
	if status == appointments.StatusCancelled {
		return PriorityHigh
	}
	return PriorityNormal
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification) error {
	if err := d.repo.Create(ctx, n); err != nil {
		d.metrics.ObserveNotification("in-app", "failed")
		return err
	}
	d.metrics.ObserveNotification("in-app", "created")
	return nil
}

// scheduleReminders creates one future reminder per configured lead. A lead
// that would fire in the past is skipped.
func (d *Dispatcher) scheduleReminders(ctx context.Context, appt *appointments.Appointment) {
	startsAt := appt.StartsAt()
	now := d.now().UTC()

	for _, lead := range d.leads {
		fireAt := startsAt.Add(-lead)
		if !fireAt.After(now) {
			continue
		}
		n := &Notification{
			UserID:        appt.PatientID,
			Kind:          KindReminder,
			Title:         "Upcoming appointment",
			Message:       fmt.Sprintf("Reminder: you have an appointment on %s.", describeSlot(appt)),
			AppointmentID: appt.ID,
			Priority:      PriorityHigh,
			ScheduledFor:  &fireAt,
			Metadata:      map[string]string{"lead": lead.String()},
		}
		if err := d.repo.Create(ctx, n); err != nil {
			d.logger.Error("reminder scheduling failed", "appointment_id", appt.ID, "lead", lead.String(), "error", err)
		}
	}
}

func (d *Dispatcher) dropReminders(ctx context.Context, appointmentID string) {
	dropped, err := d.repo.CancelPending(ctx, appointmentID)
	if err != nil {
		d.logger.Error("reminder cleanup failed", "appointment_id", appointmentID, "error", err)
		return
	}
	if dropped > 0 {
		d.logger.Info("pending reminders dropped", "appointment_id", appointmentID, "count", dropped)
	}
}

func (d *Dispatcher) emailPatient(ctx context.Context, appt *appointments.Appointment, subject, body string) {
	if d.email == nil {
		return
	}
	patient, err := d.users.GetByID(ctx, appt.PatientID)
	if err != nil {
		d.logger.Error("patient lookup for email failed", "patient_id", appt.PatientID, "error", err)
		return
	}
	if patient.Email == "" {
		return
	}
	msg := EmailMessage{
		To:      patient.Email,
		ToName:  patient.Name,
		Subject: subject,
		Body:    body,
	}
	if err := d.email.Send(ctx, msg); err != nil {
		d.metrics.ObserveNotification("email", "failed")
		d.logger.Error("patient email failed", "patient_id", appt.PatientID, "error", err)
		return
	}
	d.metrics.ObserveNotification("email", "sent")
}

var _ appointments.Notifier = (*Dispatcher)(nil)
