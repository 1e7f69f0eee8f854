package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medibook/medibook-platform/internal/observability/metrics"
	"github.com/medibook/medibook-platform/internal/schedule"
	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// DoctorDirectory is the slice of the user store the booking flow needs.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Notifier fans appointment events out to the parties involved. Delivery
// failures must not fail the booking, so the service only logs them.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment) error
	AppointmentStatusChanged(ctx context.Context, appt *Appointment, previous Status, actor Actor) error
}

// Service wires booking rules around the repository: availability, conflict
// rejection, lifecycle transitions, and the notification side effects.
type Service struct {
	repo        Repository
	calendar    *schedule.Calendar
	doctors     DoctorDirectory
	notifier    Notifier
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	slotMinutes int
	now         func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithNotifier attaches the notification dispatcher.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics attaches booking metrics. Nil metrics are safe.
func WithMetrics(m *metrics.BookingMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithSlotMinutes overrides the generated slot duration.
func WithSlotMinutes(minutes int) ServiceOption {
	return func(s *Service) {
		if minutes > 0 {
			s.slotMinutes = minutes
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, calendar *schedule.Calendar, doctors DoctorDirectory, logger *logging.Logger, opts ...ServiceOption) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if calendar == nil {
		panic("appointments: calendar required")
	}
	if doctors == nil {
		panic("appointments: doctor directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:        repo,
		calendar:    calendar,
		doctors:     doctors,
		logger:      logger,
		slotMinutes: schedule.DefaultSlotMinutes,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book creates a pending appointment for the patient if the requested slot
// falls inside the doctor's working window and no blocking appointment
// overlaps it. The conflict check and insert are atomic in the repository.
func (s *Service) Book(ctx context.Context, patientID string, req *CreateRequest) (*Appointment, error) {
	date, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if patientID == req.DoctorID {
		return nil, ErrSelfBooking
	}

	startsAt := date.Add(time.Duration(req.Slot.Start) * time.Minute)
	if startsAt.Before(s.now().UTC()) {
		return nil, ErrPastDate
	}

	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("appointments: doctor lookup: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, ErrDoctorNotFound
	}

	window, available, err := s.calendar.ResolveWindow(ctx, req.DoctorID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve window: %w", err)
	}
	if !available || req.Slot.Start < window.Start || req.Slot.End > window.End {
		return nil, ErrNoAvailability
	}

	appt := &Appointment{
		PatientID:           patientID,
		DoctorID:            req.DoctorID,
		Date:                date,
		Slot:                *req.Slot,
		DurationMinutes:     req.DurationMinutes,
		Type:                req.Type,
		Status:              StatusPending,
		Reason:              req.Reason,
		SpecialRequirements: req.SpecialRequirements,
		PaymentStatus:       PaymentPending,
		Location:            req.Location,
	}

	if err := s.repo.CreateIfFree(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveConflict()
			s.metrics.ObserveBooking(string(appt.Type), "conflict")
		}
		return nil, err
	}
	s.metrics.ObserveBooking(string(appt.Type), "created")

	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, appt); err != nil {
			s.logger.Error("booking notification failed", "appointment_id", appt.ID, "error", err)
		}
	}

	return appt, nil
}

// AvailableSlots returns the doctor and their free slots for the date: the
// working window diced into fixed-length slots, minus those overlapping a
// blocking appointment. A doctor who works no window that day gets an empty
// list.
func (s *Service) AvailableSlots(ctx context.Context, doctorID string, date time.Time) (*users.User, []timeslot.Interval, error) {
	started := s.now()

	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, nil, ErrDoctorNotFound
		}
		return nil, nil, fmt.Errorf("appointments: doctor lookup: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, nil, ErrDoctorNotFound
	}

	window, available, err := s.calendar.ResolveWindow(ctx, doctorID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("appointments: resolve window: %w", err)
	}
	if !available {
		return doctor, []timeslot.Interval{}, nil
	}

	booked, err := s.repo.ListForDoctorDay(ctx, doctorID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("appointments: list day: %w", err)
	}
	intervals := make([]timeslot.Interval, 0, len(booked))
	for _, appt := range booked {
		intervals = append(intervals, appt.Slot)
	}

	slots := schedule.GenerateSlots(window, intervals, s.slotMinutes)
	s.metrics.ObserveAvailabilityLatency(s.now().Sub(started).Seconds())
	return doctor, slots, nil
}

// UpdateStatus applies a lifecycle transition on the actor's behalf. The
// authority table decides legality; the repository persists the change.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status, notes string, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Transition(appt, target, actor); err != nil {
		return nil, err
	}

	previous := appt.Status
	updated, err := s.repo.UpdateStatus(ctx, id, target, notes)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition(string(target), string(actor.Role))

	if s.notifier != nil {
		if err := s.notifier.AppointmentStatusChanged(ctx, updated, previous, actor); err != nil {
			s.logger.Error("status notification failed", "appointment_id", id, "error", err)
		}
	}

	return updated, nil
}

// Delete removes a pending appointment. Only the booking patient may delete;
// anything past pending must go through cancellation so the history stays.
func (s *Service) Delete(ctx context.Context, id string, actor Actor) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != users.RolePatient || appt.PatientID != actor.ID {
		return ErrAccessDenied
	}
	if appt.Status != StatusPending {
		return ErrNotPending
	}

	return s.repo.Delete(ctx, id)
}

// Get returns one appointment, visible only to its patient or doctor.
func (s *Service) Get(ctx context.Context, id string, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(appt, actor); err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns the actor's appointments: patients see their own bookings,
// doctors their own schedule. The status filter is optional.
func (s *Service) List(ctx context.Context, actor Actor, status Status, limit, offset int) ([]*Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	filter := ListFilter{Status: status, Limit: limit, Offset: offset}
	switch actor.Role {
	case users.RolePatient:
		filter.PatientID = actor.ID
	case users.RoleDoctor:
		filter.DoctorID = actor.ID
	default:
		return nil, ErrAccessDenied
	}
	return s.repo.List(ctx, filter)
}
