package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/store"
)

// MockPauseHistoryStore implements store.PauseHistoryStore in memory.
type MockPauseHistoryStore struct {
	AppendFn func(ctx context.Context, record *domain.PauseHistoryRecord) error

	mu      sync.Mutex
	Records []*domain.PauseHistoryRecord
}

// NewMockPauseHistoryStore creates an empty store.
func NewMockPauseHistoryStore() *MockPauseHistoryStore {
	return &MockPauseHistoryStore{}
}

var _ store.PauseHistoryStore = (*MockPauseHistoryStore)(nil)

// Append implements store.PauseHistoryStore.
func (m *MockPauseHistoryStore) Append(ctx context.Context, record *domain.PauseHistoryRecord) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *record
	m.Records = append(m.Records, &c)
	return nil
}

// ListByDefinition implements store.PauseHistoryStore.
func (m *MockPauseHistoryStore) ListByDefinition(ctx context.Context, definitionID uuid.UUID) ([]*domain.PauseHistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PauseHistoryRecord
	for i := len(m.Records) - 1; i >= 0; i-- {
		if m.Records[i].DefinitionID == definitionID {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}

// WithTx implements store.PauseHistoryStore.
func (m *MockPauseHistoryStore) WithTx(*sql.Tx) store.PauseHistoryStore {
	return m
}
