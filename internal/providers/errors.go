package providers

import "errors"

var (
	ErrMissingSpecialty = errors.New("specialty is required")
	ErrNegativeValue    = errors.New("experience and fee must not be negative")
	ErrProfileNotFound  = errors.New("provider profile not found")
)
