package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// Store implements ports.TemplateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Template
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Template),
	}
}

// NewFromTemplates creates a store pre-filled with templates.
// This improves DX for tests and embedded libraries.
func NewFromTemplates(templates ...*domain.Template) (*Store, error) {
	s := NewStore()
	for _, t := range templates {
		if err := s.Save(context.Background(), t); err != nil {
			return nil, fmt.Errorf("failed to seed template: %w", err)
		}
	}
	return s, nil
}

// Save validates and stores a copy of the template.
func (s *Store) Save(ctx context.Context, tmpl *domain.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[tmpl.ID] = *tmpl
	return nil
}

// Load returns a copy so callers can't mutate store state through the pointer.
func (s *Store) Load(ctx context.Context, id string) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return &tmpl, nil
}

// Delete removes the template.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
