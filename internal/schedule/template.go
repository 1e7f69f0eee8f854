// Package schedule resolves a doctor's bookable window for a calendar date
// and generates the fixed-duration slots inside it.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medibook/medibook-platform/internal/timeslot"
)

// DayWindow is the working window for a single weekday.
// Nil means the doctor does not see patients that day.
type DayWindow struct {
	StartTime string `json:"startTime"` // "09:00" in 24-hour format
	EndTime   string `json:"endTime"`   // "17:00" in 24-hour format
}

// WeeklyTemplate is a doctor's recurring weekly availability, keyed by
// day-of-week. At most one window per day.
type WeeklyTemplate struct {
	DoctorID  string     `json:"doctor_id"`
	Monday    *DayWindow `json:"monday,omitempty"`
	Tuesday   *DayWindow `json:"tuesday,omitempty"`
	Wednesday *DayWindow `json:"wednesday,omitempty"`
	Thursday  *DayWindow `json:"thursday,omitempty"`
	Friday    *DayWindow `json:"friday,omitempty"`
	Saturday  *DayWindow `json:"saturday,omitempty"`
	Sunday    *DayWindow `json:"sunday,omitempty"`
}

// WindowForDay returns the configured window for a weekday, if any.
func (t *WeeklyTemplate) WindowForDay(weekday time.Weekday) *DayWindow {
	switch weekday {
	case time.Sunday:
		return t.Sunday
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	case time.Saturday:
		return t.Saturday
	default:
		return nil
	}
}

// SetWindowForDay replaces the window for a weekday.
func (t *WeeklyTemplate) SetWindowForDay(weekday time.Weekday, w *DayWindow) {
	switch weekday {
	case time.Sunday:
		t.Sunday = w
	case time.Monday:
		t.Monday = w
	case time.Tuesday:
		t.Tuesday = w
	case time.Wednesday:
		t.Wednesday = w
	case time.Thursday:
		t.Thursday = w
	case time.Friday:
		t.Friday = w
	case time.Saturday:
		t.Saturday = w
	}
}

// HasAnyWindow reports whether at least one weekday is configured.
func (t *WeeklyTemplate) HasAnyWindow() bool {
	return t.Sunday != nil || t.Monday != nil || t.Tuesday != nil ||
		t.Wednesday != nil || t.Thursday != nil || t.Friday != nil || t.Saturday != nil
}

// Validate checks every configured window parses and keeps start before end.
func (t *WeeklyTemplate) Validate() error {
	for d := time.Sunday; d <= time.Saturday; d++ {
		w := t.WindowForDay(d)
		if w == nil {
			continue
		}
		if _, err := timeslot.ParseInterval(w.StartTime, w.EndTime); err != nil {
			return fmt.Errorf("schedule: %s window: %w", d, err)
		}
	}
	return nil
}

// Interval converts a day window to its parsed form.
func (w *DayWindow) Interval() (timeslot.Interval, error) {
	return timeslot.ParseInterval(w.StartTime, w.EndTime)
}

// TemplateStore persists weekly availability templates.
type TemplateStore interface {
	// Get returns the stored template, or nil when the doctor has none.
	Get(ctx context.Context, doctorID string) (*WeeklyTemplate, error)
	Set(ctx context.Context, tpl *WeeklyTemplate) error
}

// RedisTemplateStore keeps templates as JSON blobs keyed by doctor id.
type RedisTemplateStore struct {
	redis *redis.Client
}

// NewRedisTemplateStore creates a Redis-backed template store.
func NewRedisTemplateStore(redisClient *redis.Client) *RedisTemplateStore {
	return &RedisTemplateStore{redis: redisClient}
}

func (s *RedisTemplateStore) key(doctorID string) string {
	return fmt.Sprintf("schedule:template:%s", doctorID)
}

// Get retrieves the template, returning nil when none is stored.
func (s *RedisTemplateStore) Get(ctx context.Context, doctorID string) (*WeeklyTemplate, error) {
	data, err := s.redis.Get(ctx, s.key(doctorID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: get template: %w", err)
	}

	var tpl WeeklyTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("schedule: unmarshal template: %w", err)
	}
	return &tpl, nil
}

// Set saves the template.
func (s *RedisTemplateStore) Set(ctx context.Context, tpl *WeeklyTemplate) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("schedule: marshal template: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(tpl.DoctorID), data, 0).Err(); err != nil {
		return fmt.Errorf("schedule: set template: %w", err)
	}
	return nil
}
