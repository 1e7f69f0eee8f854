package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/medibook/medibook-platform/internal/timeslot"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// DefaultWindow is the platform-wide working window applied to doctors who
// have not configured any weekly template.
var DefaultWindow = timeslot.Interval{
	Start: timeslot.MustParse("09:00"),
	End:   timeslot.MustParse("17:00"),
}

// Calendar resolves the bookable working window for a (doctor, date) pair.
type Calendar struct {
	store         TemplateStore
	defaultWindow timeslot.Interval
	logger        *logging.Logger
}

// NewCalendar creates a calendar over the given template store. A zero
// defaultWindow falls back to DefaultWindow.
func NewCalendar(store TemplateStore, defaultWindow timeslot.Interval, logger *logging.Logger) *Calendar {
	if store == nil {
		panic("schedule: template store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if defaultWindow == (timeslot.Interval{}) {
		defaultWindow = DefaultWindow
	}
	return &Calendar{store: store, defaultWindow: defaultWindow, logger: logger}
}

// ResolveWindow returns the working window applicable to the date, and false
// when the doctor has no availability that day. Doctors without any stored
// template get the default window every day; doctors with a template that
// leaves the date's weekday unset are unavailable that day.
func (c *Calendar) ResolveWindow(ctx context.Context, doctorID string, date time.Time) (timeslot.Interval, bool, error) {
	tpl, err := c.store.Get(ctx, doctorID)
	if err != nil {
		return timeslot.Interval{}, false, fmt.Errorf("schedule: resolve window: %w", err)
	}

	if tpl == nil || !tpl.HasAnyWindow() {
		return c.defaultWindow, true, nil
	}

	w := tpl.WindowForDay(date.Weekday())
	if w == nil {
		return timeslot.Interval{}, false, nil
	}

	iv, err := w.Interval()
	if err != nil {
		// Stored templates are validated on write; a parse failure here means
		// the stored blob was corrupted out-of-band.
		c.logger.Error("schedule: stored window unparsable, using default",
			"doctor_id", doctorID, "weekday", date.Weekday().String(), "error", err)
		return c.defaultWindow, true, nil
	}
	return iv, true, nil
}
