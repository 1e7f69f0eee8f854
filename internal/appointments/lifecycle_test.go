package appointments

import (
	"errors"
	"testing"

	"github.com/medibook/medibook-platform/internal/users"
)

func testAppointment(status Status) *Appointment {
	return &Appointment{
		ID:        "appt-1",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		Status:    status,
	}
}

func TestTransitionAuthorityTable(t *testing.T) {
	patient := Actor{ID: "patient-1", Role: users.RolePatient}
	doctor := Actor{ID: "doctor-1", Role: users.RoleDoctor}

	tests := []struct {
		name    string
		from    Status
		to      Status
		actor   Actor
		wantErr error
	}{
		{"doctor confirms pending", StatusPending, StatusConfirmed, doctor, nil},
		{"doctor cancels pending", StatusPending, StatusCancelled, doctor, nil},
		{"doctor completes confirmed", StatusConfirmed, StatusCompleted, doctor, nil},
		{"doctor marks confirmed no-show", StatusConfirmed, StatusNoShow, doctor, nil},
		{"doctor cancels confirmed", StatusConfirmed, StatusCancelled, doctor, nil},
		{"patient cancels pending", StatusPending, StatusCancelled, patient, nil},
		{"patient cancels confirmed", StatusConfirmed, StatusCancelled, patient, nil},

		{"patient cannot confirm", StatusPending, StatusConfirmed, patient, ErrPatientTransition},
		{"patient cannot complete", StatusConfirmed, StatusCompleted, patient, ErrPatientTransition},
		{"patient cannot mark no-show", StatusConfirmed, StatusNoShow, patient, ErrPatientTransition},
		{"doctor cannot complete pending", StatusPending, StatusCompleted, doctor, ErrDoctorTransition},
		{"doctor cannot no-show pending", StatusPending, StatusNoShow, doctor, ErrDoctorTransition},
		{"doctor cannot re-pend confirmed", StatusConfirmed, StatusPending, doctor, ErrDoctorTransition},

		{"cancelled is terminal", StatusCancelled, StatusConfirmed, doctor, ErrTerminalStatus},
		{"completed is terminal", StatusCompleted, StatusCancelled, patient, ErrTerminalStatus},
		{"no-show is terminal", StatusNoShow, StatusConfirmed, doctor, ErrTerminalStatus},

		{"unknown target status", StatusPending, Status("rescheduled"), doctor, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(testAppointment(tt.from), tt.to, tt.actor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transition(%s -> %s, %s) = %v, want %v", tt.from, tt.to, tt.actor.Role, err, tt.wantErr)
			}
		})
	}
}

func TestTransitionOwnership(t *testing.T) {
	appt := testAppointment(StatusPending)

	otherPatient := Actor{ID: "patient-2", Role: users.RolePatient}
	if err := Transition(appt, StatusCancelled, otherPatient); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("foreign patient: got %v, want ErrAccessDenied", err)
	}

	otherDoctor := Actor{ID: "doctor-2", Role: users.RoleDoctor}
	if err := Transition(appt, StatusConfirmed, otherDoctor); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("foreign doctor: got %v, want ErrAccessDenied", err)
	}

	admin := Actor{ID: "admin-1", Role: users.RoleAdmin}
	if err := Transition(appt, StatusCancelled, admin); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("admin: got %v, want ErrAccessDenied", err)
	}
}

func TestTransitionDoesNotMutate(t *testing.T) {
	appt := testAppointment(StatusPending)
	doctor := Actor{ID: "doctor-1", Role: users.RoleDoctor}
	if err := Transition(appt, StatusConfirmed, doctor); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if appt.Status != StatusPending {
		t.Fatalf("Transition mutated status to %s", appt.Status)
	}
}
