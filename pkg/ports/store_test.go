package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
)

// MockStore is a map-backed TemplateStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Template
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Template)}
}

func (m *MockStore) Save(ctx context.Context, tmpl *domain.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tmpl.ID] = *tmpl
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tmpl, ok := m.data[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return &tmpl, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestTemplateStore_Contract(t *testing.T) {
	ports.RunTemplateStoreContract(t, NewMockStore())
}
