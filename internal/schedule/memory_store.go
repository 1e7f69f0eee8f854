package schedule

import (
	"context"
	"sync"
)

// MemoryTemplateStore keeps templates in memory. Used in tests and when no
// Redis address is configured.
type MemoryTemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*WeeklyTemplate
}

// NewMemoryTemplateStore creates an in-memory template store.
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: make(map[string]*WeeklyTemplate)}
}

// Get returns the stored template, or nil when the doctor has none.
func (s *MemoryTemplateStore) Get(ctx context.Context, doctorID string) (*WeeklyTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[doctorID]
	if !ok {
		return nil, nil
	}
	cp := *tpl
	return &cp, nil
}

// Set saves the template.
func (s *MemoryTemplateStore) Set(ctx context.Context, tpl *WeeklyTemplate) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	cp := *tpl

	s.mu.Lock()
	s.templates[tpl.DoctorID] = &cp
	s.mu.Unlock()
	return nil
}
