package appointments

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed Repository for tests and local
// development. A per-(doctor, date) lock stripe serializes CreateIfFree so
// the check-and-insert is atomic without blocking unrelated doctors.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Appointment
	locks sync.Map // dayKey -> *sync.Mutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

func dayKey(doctorID string, date time.Time) string {
	return fmt.Sprintf("%s:%s", doctorID, date.Format(time.DateOnly))
}

func (r *InMemoryRepository) dayLock(doctorID string, date time.Time) *sync.Mutex {
	m, _ := r.locks.LoadOrStore(dayKey(doctorID, date), &sync.Mutex{})
	return m.(*sync.Mutex)
}

func (r *InMemoryRepository) CreateIfFree(ctx context.Context, appt *Appointment) error {
	lock := r.dayLock(appt.DoctorID, appt.Date)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.DoctorID != appt.DoctorID {
			continue
		}
		if blocks(existing, appt.Date, appt.Slot) {
			return ErrSlotTaken
		}
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	r.byID[appt.ID] = &stored
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *InMemoryRepository) ListForDoctorDay(ctx context.Context, doctorID string, date time.Time) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.byID {
		if appt.DoctorID != doctorID || !appt.Date.Equal(date) || !appt.Status.Blocking() {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Start < out[j].Slot.Start })
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, notes string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = status
	if notes != "" {
		appt.Notes = notes
	}
	appt.UpdatedAt = time.Now().UTC()
	cp := *appt
	return &cp, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, appt := range r.byID {
		if filter.PatientID != "" && appt.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && appt.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && appt.Status != filter.Status {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Slot.Start < out[j].Slot.Start
	})

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
