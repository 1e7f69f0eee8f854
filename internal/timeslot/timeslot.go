// Package timeslot provides time-of-day interval arithmetic for slot
// generation and booking conflict checks. Times are minutes since midnight,
// intervals are half-open: [start, end).
package timeslot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every TimeOfDay value.
const MinutesPerDay = 24 * 60

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

// Parse converts "HH:MM" or "HH:MM:SS" (24-hour, zero-padded) into a
// TimeOfDay. Both formats denote the same value when the clock time matches;
// seconds are ignored. Anything else returns ErrBadTimeFormat.
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
		}
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
	}
	if len(parts) == 3 {
		ss, err := strconv.Atoi(parts[2])
		if err != nil || ss < 0 || ss > 59 {
			return 0, fmt.Errorf("%w: %q", ErrBadTimeFormat, s)
		}
	}
	return TimeOfDay(hh*60 + mm), nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Compare returns -1, 0 or 1 ordering a against b.
func Compare(a, b TimeOfDay) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add returns t shifted by m minutes. The result may exceed the day; callers
// that build intervals go through NewInterval, which rejects out-of-day
// values rather than wrapping them.
func (t TimeOfDay) Add(m int) TimeOfDay {
	return t + TimeOfDay(m)
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Interval is a half-open time-of-day range within a single calendar day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval validates the start < end invariant and the single-day bound.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if start < 0 || end > MinutesPerDay {
		return Interval{}, ErrOutOfDay
	}
	if start >= end {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval builds an Interval from two clock strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := Parse(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps reports whether the two half-open intervals intersect.
// Intervals that only touch at an endpoint do not overlap, so back-to-back
// appointments are always allowed.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Minutes returns the span of the interval.
func (iv Interval) Minutes() int {
	return int(iv.End - iv.Start)
}

// String renders "HH:MM-HH:MM".
func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

type intervalJSON struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// MarshalJSON renders the wire shape {"startTime":"HH:MM","endTime":"HH:MM"}.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(intervalJSON{
		StartTime: iv.Start.String(),
		EndTime:   iv.End.String(),
	})
}

// UnmarshalJSON accepts the wire shape, normalizing HH:MM:SS values.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var raw intervalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseInterval(raw.StartTime, raw.EndTime)
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}
