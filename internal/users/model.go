// Package users holds the platform's user directory: patients, doctors and
// admins. Registration and credential handling live in the identity service;
// this package only stores the profile fields the booking flow needs.
package users

import "time"

// Role classifies what a user may do on the platform.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDoctor reports whether the user has the doctor capability.
func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}
