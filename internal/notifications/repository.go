package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error)
	GetByID(ctx context.Context, id string) (*Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// ListDue returns undelivered reminders whose scheduled time has passed.
	ListDue(ctx context.Context, now time.Time) ([]*Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	// CancelPending drops undelivered reminders tied to an appointment, used
	// when it is cancelled or rescheduled before the reminders fire.
	CancelPending(ctx context.Context, appointmentID string) (int, error)
}

// InMemoryRepository is a map-backed Repository for tests and local
// development.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*Notification
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Notification)}
}

func (r *InMemoryRepository) Create(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	n.CreatedAt = time.Now().UTC()

	cp := *n
	r.byID[n.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Notification
	for _, n := range r.byID {
		if n.UserID != userID {
			continue
		}
		if n.Pending() {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *InMemoryRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

func (r *InMemoryRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.byID {
		if n.UserID == userID && !n.Read && !n.Pending() {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) ListDue(ctx context.Context, now time.Time) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Notification
	for _, n := range r.byID {
		if n.Pending() && !n.ScheduledFor.After(now) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(*out[j].ScheduledFor) })
	return out, nil
}

func (r *InMemoryRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return ErrNotificationNotFound
	}
	sent := at.UTC()
	n.SentAt = &sent
	return nil
}

func (r *InMemoryRepository) CancelPending(ctx context.Context, appointmentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, n := range r.byID {
		if n.AppointmentID == appointmentID && n.Pending() {
			delete(r.byID, id)
			count++
		}
	}
	return count, nil
}
