package users

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the id.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidRole is returned when a role value is not recognized.
	ErrInvalidRole = errors.New("invalid role")
)
