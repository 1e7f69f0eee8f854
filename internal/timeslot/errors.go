package timeslot

import "errors"

var (
	// ErrBadTimeFormat is returned when a clock string is not HH:MM or HH:MM:SS.
	ErrBadTimeFormat = errors.New("time must be HH:MM in 24-hour format")

	// ErrInvalidInterval is returned when start is not strictly before end.
	ErrInvalidInterval = errors.New("interval start must be before end")

	// ErrOutOfDay is returned when an interval crosses a day boundary.
	ErrOutOfDay = errors.New("interval must stay within a single day")
)
