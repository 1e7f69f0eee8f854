package schedule

import "github.com/medibook/medibook-platform/internal/timeslot"

// DefaultSlotMinutes is the standard appointment length.
const DefaultSlotMinutes = 30

// GenerateSlots enumerates the fixed-duration candidate slots inside the
// working window, in ascending order, skipping any slot that overlaps a
// booked interval. Pure function: callers filter the booked set to
// non-terminal appointments before passing it in.
func GenerateSlots(window timeslot.Interval, booked []timeslot.Interval, slotMinutes int) []timeslot.Interval {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	slots := make([]timeslot.Interval, 0, window.Minutes()/slotMinutes)
	for start := window.Start; start.Add(slotMinutes) <= window.End; start = start.Add(slotMinutes) {
		candidate := timeslot.Interval{Start: start, End: start.Add(slotMinutes)}

		taken := false
		for _, b := range booked {
			if candidate.Overlaps(b) {
				taken = true
				break
			}
		}
		if !taken {
			slots = append(slots, candidate)
		}
	}
	return slots
}
