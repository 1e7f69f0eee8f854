package providers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository persists provider profiles. Upsert replaces the profile
// wholesale; there is exactly one profile per doctor.
type Repository interface {
	Upsert(ctx context.Context, profile *Profile) error
	GetByDoctorID(ctx context.Context, doctorID string) (*Profile, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Profile, error)
}

// InMemoryRepository is a map-backed Repository for tests and local
// development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{profiles: make(map[string]*Profile)}
}

func (r *InMemoryRepository) Upsert(ctx context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.profiles[profile.DoctorID]; ok {
		profile.CreatedAt = existing.CreatedAt
		profile.Rating = existing.Rating
		profile.RatingCount = existing.RatingCount
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	cp := *profile
	r.profiles[profile.DoctorID] = &cp
	return nil
}

func (r *InMemoryRepository) GetByDoctorID(ctx context.Context, doctorID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[doctorID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) Search(ctx context.Context, filter SearchFilter) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Profile
	for _, p := range r.profiles {
		if !matches(p, filter) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DoctorID < out[j].DoctorID })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(p *Profile, filter SearchFilter) bool {
	if filter.Specialty != "" && !strings.EqualFold(p.Specialty, filter.Specialty) {
		return false
	}
	if filter.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(filter.Location)) {
		return false
	}
	if filter.Language != "" {
		found := false
		for _, lang := range p.Languages {
			if strings.EqualFold(lang, filter.Language) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
