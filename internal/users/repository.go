package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user storage.
type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}

// InMemoryRepository is a Repository backed by a map. Used in tests and when
// no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

// Create stores a new user, assigning an id when none is set.
func (r *InMemoryRepository) Create(ctx context.Context, u *User) (*User, error) {
	if !u.Role.Valid() {
		return nil, ErrInvalidRole
	}

	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	r.users[cp.ID] = &cp
	r.mu.Unlock()

	out := cp
	return &out, nil
}

// GetByID retrieves a user by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ListByRole returns all users with the given role.
func (r *InMemoryRepository) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}
