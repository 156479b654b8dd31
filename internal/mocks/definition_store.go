package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/store"
)

// MockDefinitionStore implements store.DefinitionStore in memory. Stored
// definitions are copied on the way in and out so callers cannot mutate
// state without calling Update.
type MockDefinitionStore struct {
	CreateFn           func(ctx context.Context, def *domain.TaskDefinition) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error)
	UpdateFn           func(ctx context.Context, def *domain.TaskDefinition) error
	AdvanceWatermarkFn func(ctx context.Context, id uuid.UUID, through time.Time) error
	ListActiveFn       func(ctx context.Context) ([]*domain.TaskDefinition, error)

	mu          sync.Mutex
	definitions map[uuid.UUID]*domain.TaskDefinition

	UpdateCalls int
}

// NewMockDefinitionStore creates a store seeded with defs.
func NewMockDefinitionStore(defs ...*domain.TaskDefinition) *MockDefinitionStore {
	m := &MockDefinitionStore{definitions: make(map[uuid.UUID]*domain.TaskDefinition)}
	for _, d := range defs {
		m.definitions[d.ID] = copyDefinition(d)
	}
	return m
}

var _ store.DefinitionStore = (*MockDefinitionStore)(nil)

// Get returns the stored copy of a definition, or nil.
func (m *MockDefinitionStore) Get(id uuid.UUID) *domain.TaskDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.definitions[id]; ok {
		return copyDefinition(d)
	}
	return nil
}

// Create implements store.DefinitionStore.
func (m *MockDefinitionStore) Create(ctx context.Context, def *domain.TaskDefinition) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, def)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[def.ID]; ok {
		return store.ErrDuplicate
	}
	m.definitions[def.ID] = copyDefinition(def)
	return nil
}

// GetByID implements store.DefinitionStore.
func (m *MockDefinitionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if d := m.Get(id); d != nil {
		return d, nil
	}
	return nil, store.ErrDefinitionNotFound
}

// Update implements store.DefinitionStore.
func (m *MockDefinitionStore) Update(ctx context.Context, def *domain.TaskDefinition) error {
	m.mu.Lock()
	m.UpdateCalls++
	m.mu.Unlock()
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, def)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[def.ID]; !ok {
		return store.ErrDefinitionNotFound
	}
	m.definitions[def.ID] = copyDefinition(def)
	return nil
}

// AdvanceWatermark implements store.DefinitionStore.
func (m *MockDefinitionStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, through time.Time) error {
	if m.AdvanceWatermarkFn != nil {
		return m.AdvanceWatermarkFn(ctx, id, through)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.definitions[id]
	if !ok {
		return store.ErrDefinitionNotFound
	}
	d.AdvanceWatermark(through)
	return nil
}

// ListActive implements store.DefinitionStore.
func (m *MockDefinitionStore) ListActive(ctx context.Context) ([]*domain.TaskDefinition, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TaskDefinition
	for _, d := range m.definitions {
		if d.IsActive() {
			out = append(out, copyDefinition(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// WithTx implements store.DefinitionStore.
func (m *MockDefinitionStore) WithTx(*sql.Tx) store.DefinitionStore {
	return m
}

func copyDefinition(d *domain.TaskDefinition) *domain.TaskDefinition {
	c := *d
	c.Rule.Weekdays = append([]time.Weekday(nil), d.Rule.Weekdays...)
	if d.Pause != nil {
		p := *d.Pause
		c.Pause = &p
	}
	return &c
}
