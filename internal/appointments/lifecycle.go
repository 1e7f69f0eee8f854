package appointments

import "github.com/medibook/medibook-platform/internal/users"

// Actor is whoever requests a lifecycle transition.
type Actor struct {
	ID   string
	Role users.Role
}

type transition struct {
	from Status
	to   Status
	role users.Role
}

// transitions is the single authority table: a status change is legal iff
// its (current, requested, role) triple appears here. Pending appointments
// move to confirmed or cancelled; confirmed ones to completed, no-show or
// cancelled; terminal states never appear as a source. A no-show is only
// reachable from confirmed: a patient who never shows for an unconfirmed
// appointment is cancelled instead.
var transitions = map[transition]bool{
	{StatusPending, StatusConfirmed, users.RoleDoctor}:  true,
	{StatusPending, StatusCancelled, users.RoleDoctor}:  true,
	{StatusPending, StatusCancelled, users.RolePatient}: true,

	{StatusConfirmed, StatusCompleted, users.RoleDoctor}:  true,
	{StatusConfirmed, StatusNoShow, users.RoleDoctor}:     true,
	{StatusConfirmed, StatusCancelled, users.RoleDoctor}:  true,
	{StatusConfirmed, StatusCancelled, users.RolePatient}: true,
}

// Authorize checks that the actor owns one side of the appointment: the
// booking patient or the assigned doctor. Everyone else is denied.
func Authorize(appt *Appointment, actor Actor) error {
	switch actor.Role {
	case users.RolePatient:
		if appt.PatientID != actor.ID {
			return ErrAccessDenied
		}
	case users.RoleDoctor:
		if appt.DoctorID != actor.ID {
			return ErrAccessDenied
		}
	default:
		return ErrAccessDenied
	}
	return nil
}

// Transition validates a status change request against the authority table
// and returns the error class the handler maps onto HTTP: unknown statuses
// and role-disallowed targets are validation failures, ownership failures
// are authorization failures. It does not mutate the appointment.
func Transition(appt *Appointment, target Status, actor Actor) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}

	if err := Authorize(appt, actor); err != nil {
		return err
	}

	if appt.Status.Terminal() {
		return ErrTerminalStatus
	}

	if !transitions[transition{appt.Status, target, actor.Role}] {
		if actor.Role == users.RolePatient {
			return ErrPatientTransition
		}
		return ErrDoctorTransition
	}

	return nil
}
