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

// MockInstanceStore implements store.InstanceStore in memory and enforces
// the (definition, slot) uniqueness the database enforces.
type MockInstanceStore struct {
	QueryDatesFn       func(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]time.Time, error)
	BulkCreateFn       func(ctx context.Context, instances []*domain.TaskInstance) (store.BulkResult, error)
	DeleteInRangeFn    func(ctx context.Context, definitionID uuid.UUID, start time.Time, end *time.Time, excludeCompleted bool) (int, error)
	ListByDefinitionFn func(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]*domain.TaskInstance, error)

	// FailDueDates makes BulkCreate reject instances due on these slots.
	FailDueDates map[string]error

	mu        sync.Mutex
	instances map[uuid.UUID]*domain.TaskInstance

	QueryDatesCalls    int
	BulkCreateCalls    int
	DeleteInRangeCalls int
}

// NewMockInstanceStore creates an empty store.
func NewMockInstanceStore() *MockInstanceStore {
	return &MockInstanceStore{instances: make(map[uuid.UUID]*domain.TaskInstance)}
}

var _ store.InstanceStore = (*MockInstanceStore)(nil)

// Seed inserts instances without counting calls.
func (m *MockInstanceStore) Seed(instances ...*domain.TaskInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range instances {
		m.instances[inst.ID] = inst
	}
}

// All returns every stored instance of definitionID ordered by due date.
func (m *MockInstanceStore) All(definitionID uuid.UUID) []*domain.TaskInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(definitionID, func(*domain.TaskInstance) bool { return true })
}

// QueryDates implements store.InstanceStore.
func (m *MockInstanceStore) QueryDates(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	m.mu.Lock()
	m.QueryDatesCalls++
	m.mu.Unlock()
	if m.QueryDatesFn != nil {
		return m.QueryDatesFn(ctx, definitionID, start, end)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, inst := range m.filter(definitionID, inRange(start, &end)) {
		out = append(out, inst.DueDate)
	}
	return out, nil
}

// BulkCreate implements store.InstanceStore.
func (m *MockInstanceStore) BulkCreate(ctx context.Context, instances []*domain.TaskInstance) (store.BulkResult, error) {
	m.mu.Lock()
	m.BulkCreateCalls++
	m.mu.Unlock()
	if m.BulkCreateFn != nil {
		return m.BulkCreateFn(ctx, instances)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var res store.BulkResult
	for i, inst := range instances {
		if err := inst.Validate(); err != nil {
			res.Failures = append(res.Failures, store.ItemFailure{Index: i, Instance: inst, Err: err})
			continue
		}
		if err, ok := m.FailDueDates[inst.SlotKey]; ok {
			res.Failures = append(res.Failures, store.ItemFailure{Index: i, Instance: inst, Err: err})
			continue
		}
		if m.slotTaken(inst) {
			res.Duplicates++
			continue
		}
		m.instances[inst.ID] = inst
		res.Created++
	}
	return res, nil
}

// DeleteInRange implements store.InstanceStore.
func (m *MockInstanceStore) DeleteInRange(ctx context.Context, definitionID uuid.UUID, start time.Time, end *time.Time, excludeCompleted bool) (int, error) {
	m.mu.Lock()
	m.DeleteInRangeCalls++
	m.mu.Unlock()
	if m.DeleteInRangeFn != nil {
		return m.DeleteInRangeFn(ctx, definitionID, start, end, excludeCompleted)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inst := range m.filter(definitionID, inRange(start, end)) {
		if excludeCompleted && inst.Status == domain.InstanceStatusCompleted {
			continue
		}
		delete(m.instances, inst.ID)
		n++
	}
	return n, nil
}

// ListByDefinition implements store.InstanceStore.
func (m *MockInstanceStore) ListByDefinition(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]*domain.TaskInstance, error) {
	if m.ListByDefinitionFn != nil {
		return m.ListByDefinitionFn(ctx, definitionID, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(definitionID, inRange(start, &end)), nil
}

// WithTx implements store.InstanceStore.
func (m *MockInstanceStore) WithTx(*sql.Tx) store.InstanceStore {
	return m
}

func (m *MockInstanceStore) slotTaken(inst *domain.TaskInstance) bool {
	for _, existing := range m.instances {
		if existing.DefinitionID == inst.DefinitionID && existing.SlotKey == inst.SlotKey {
			return true
		}
	}
	return false
}

func (m *MockInstanceStore) filter(definitionID uuid.UUID, keep func(*domain.TaskInstance) bool) []*domain.TaskInstance {
	var out []*domain.TaskInstance
	for _, inst := range m.instances {
		if inst.DefinitionID == definitionID && keep(inst) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func inRange(start time.Time, end *time.Time) func(*domain.TaskInstance) bool {
	return func(inst *domain.TaskInstance) bool {
		if inst.DueDate.Before(start) {
			return false
		}
		return end == nil || !inst.DueDate.After(*end)
	}
}
