package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook-platform/internal/schedule"
	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/internal/users"
	"github.com/medibook/medibook-platform/pkg/logging"
)

type stubDirectory struct {
	users map[string]*users.User
}

func (d *stubDirectory) GetByID(ctx context.Context, id string) (*users.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

type recordingNotifier struct {
	booked      []string
	transitions []string
	err         error
}

func (n *recordingNotifier) AppointmentBooked(ctx context.Context, appt *Appointment) error {
	n.booked = append(n.booked, appt.ID)
	return n.err
}

func (n *recordingNotifier) AppointmentStatusChanged(ctx context.Context, appt *Appointment, previous Status, actor Actor) error {
	n.transitions = append(n.transitions, string(previous)+"->"+string(appt.Status))
	return n.err
}

func fixedClock(s string) func() time.Time {
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return at }
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *InMemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := NewInMemoryRepository()
	notifier := &recordingNotifier{}
	dir := &stubDirectory{users: map[string]*users.User{
		"doctor-1":  {ID: "doctor-1", Name: "Dr. Osei", Role: users.RoleDoctor},
		"patient-1": {ID: "patient-1", Name: "Ada", Role: users.RolePatient},
	}}
	calendar := schedule.NewCalendar(schedule.NewMemoryTemplateStore(), timeslot.Interval{}, nil)
	base := []ServiceOption{
		WithNotifier(notifier),
		WithClock(fixedClock("2026-09-01T12:00:00Z")),
	}
	svc := NewService(repo, calendar, dir, logging.New("error"), append(base, opts...)...)
	return svc, repo, notifier
}

func bookRequest() *CreateRequest {
	return &CreateRequest{
		DoctorID: "doctor-1",
		Date:     "2026-09-10",
		Slot:     &timeslot.Interval{Start: timeslot.MustParse("10:00"), End: timeslot.MustParse("10:30")},
		Reason:   "annual checkup",
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	svc, _, notifier := newTestService(t)

	appt, err := svc.Book(context.Background(), "patient-1", bookRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, TypeConsultation, appt.Type)
	assert.Equal(t, PaymentPending, appt.PaymentStatus)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.Equal(t, []string{appt.ID}, notifier.booked)
}

func TestBookRejectsHeldSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	req := bookRequest()
	req.Slot = &timeslot.Interval{Start: timeslot.MustParse("10:15"), End: timeslot.MustParse("10:45")}
	_, err = svc.Book(ctx, "patient-1", req)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookValidationFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateRequest) (patientID string)
		wantErr error
	}{
		{"unknown doctor", func(r *CreateRequest) string { r.DoctorID = "ghost"; return "patient-1" }, ErrDoctorNotFound},
		{"doctor id is a patient", func(r *CreateRequest) string { r.DoctorID = "patient-1"; return "patient-2" }, ErrDoctorNotFound},
		{"self booking", func(r *CreateRequest) string { return "doctor-1" }, ErrSelfBooking},
		{"past date", func(r *CreateRequest) string { r.Date = "2026-08-30"; return "patient-1" }, ErrPastDate},
		{"missing slot", func(r *CreateRequest) string { r.Slot = nil; return "patient-1" }, ErrMissingFields},
		{"bad date", func(r *CreateRequest) string { r.Date = "10-09-2026"; return "patient-1" }, ErrInvalidDate},
		{"unknown type", func(r *CreateRequest) string { r.Type = "house-call"; return "patient-1" }, ErrInvalidType},
		{"duration mismatch", func(r *CreateRequest) string { r.DurationMinutes = 45; return "patient-1" }, ErrDurationMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookRequest()
			patientID := tt.mutate(req)
			_, err := svc.Book(ctx, patientID, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBookOutsideWorkingWindow(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := bookRequest()
	req.Slot = &timeslot.Interval{Start: timeslot.MustParse("18:00"), End: timeslot.MustParse("18:30")}
	_, err := svc.Book(context.Background(), "patient-1", req)
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestBookSameDaySlotStillAhead(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := bookRequest()
	req.Date = "2026-09-01" // clock is 12:00 that day
	req.Slot = &timeslot.Interval{Start: timeslot.MustParse("15:00"), End: timeslot.MustParse("15:30")}
	_, err := svc.Book(context.Background(), "patient-1", req)
	assert.NoError(t, err)

	req = bookRequest()
	req.Date = "2026-09-01"
	req.Slot = &timeslot.Interval{Start: timeslot.MustParse("09:00"), End: timeslot.MustParse("09:30")}
	_, err = svc.Book(context.Background(), "patient-1", req)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	date, _ := time.Parse(time.DateOnly, "2026-09-10")
	_, slots, err := svc.AvailableSlots(ctx, "doctor-1", date)
	require.NoError(t, err)

	assert.Len(t, slots, 15)
	for _, s := range slots {
		assert.False(t, s.Overlaps(timeslot.Interval{Start: timeslot.MustParse("10:00"), End: timeslot.MustParse("10:30")}))
	}
}

func TestAvailableSlotsUnconfiguredDay(t *testing.T) {
	store := schedule.NewMemoryTemplateStore()
	tpl := &schedule.WeeklyTemplate{DoctorID: "doctor-1"}
	tpl.SetWindowForDay(time.Monday, &schedule.DayWindow{StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, store.Set(context.Background(), tpl))

	repo := NewInMemoryRepository()
	dir := &stubDirectory{users: map[string]*users.User{
		"doctor-1": {ID: "doctor-1", Role: users.RoleDoctor},
	}}
	svc := NewService(repo, schedule.NewCalendar(store, timeslot.Interval{}, nil), dir, logging.New("error"),
		WithClock(fixedClock("2026-09-01T12:00:00Z")))

	monday, _ := time.Parse(time.DateOnly, "2026-09-07")
	_, slots, err := svc.AvailableSlots(context.Background(), "doctor-1", monday)
	require.NoError(t, err)
	assert.Len(t, slots, 8)

	tuesday, _ := time.Parse(time.DateOnly, "2026-09-08")
	_, slots, err = svc.AvailableSlots(context.Background(), "doctor-1", tuesday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestUpdateStatusNotifiesAndPersists(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	doctor := Actor{ID: "doctor-1", Role: users.RoleDoctor}
	updated, err := svc.UpdateStatus(ctx, appt.ID, StatusConfirmed, "", doctor)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.Contains(t, notifier.transitions, "pending->confirmed")

	_, err = svc.UpdateStatus(ctx, "missing", StatusConfirmed, "", doctor)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestUpdateStatusNotifierFailureDoesNotFail(t *testing.T) {
	svc, _, notifier := newTestService(t)
	notifier.err = errors.New("smtp down")
	ctx := context.Background()

	appt, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusConfirmed, "", Actor{ID: "doctor-1", Role: users.RoleDoctor})
	assert.NoError(t, err)
}

func TestDeleteOnlyPendingByOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	err = svc.Delete(ctx, appt.ID, Actor{ID: "patient-2", Role: users.RolePatient})
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = svc.Delete(ctx, appt.ID, Actor{ID: "doctor-1", Role: users.RoleDoctor})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.UpdateStatus(ctx, appt.ID, StatusConfirmed, "", Actor{ID: "doctor-1", Role: users.RoleDoctor})
	require.NoError(t, err)
	err = svc.Delete(ctx, appt.ID, Actor{ID: "patient-1", Role: users.RolePatient})
	assert.ErrorIs(t, err, ErrNotPending)

	second, err := svc.Book(ctx, "patient-1", func() *CreateRequest {
		r := bookRequest()
		r.Slot = &timeslot.Interval{Start: timeslot.MustParse("11:00"), End: timeslot.MustParse("11:30")}
		return r
	}())
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, second.ID, Actor{ID: "patient-1", Role: users.RolePatient}))
}

func TestListScopedToActor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, "patient-1", bookRequest())
	require.NoError(t, err)

	mine, err := svc.List(ctx, Actor{ID: "patient-1", Role: users.RolePatient}, "", 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, Actor{ID: "patient-2", Role: users.RolePatient}, "", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	docDay, err := svc.List(ctx, Actor{ID: "doctor-1", Role: users.RoleDoctor}, StatusPending, 50, 0)
	require.NoError(t, err)
	assert.Len(t, docDay, 1)

	_, err = svc.List(ctx, Actor{ID: "patient-1", Role: users.RolePatient}, "archived", 50, 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
