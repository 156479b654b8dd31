package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/store"
)

// MockEmployeeDirectory implements store.EmployeeDirectory from maps.
type MockEmployeeDirectory struct {
	IsAdminFn    func(ctx context.Context, employeeID uuid.UUID) (bool, error)
	IsSuperiorFn func(ctx context.Context, actorID, employeeID uuid.UUID) (bool, error)

	Admins map[uuid.UUID]bool
	// Managers maps an employee to their direct manager.
	Managers map[uuid.UUID]uuid.UUID
}

// NewMockEmployeeDirectory creates an empty directory.
func NewMockEmployeeDirectory() *MockEmployeeDirectory {
	return &MockEmployeeDirectory{
		Admins:   make(map[uuid.UUID]bool),
		Managers: make(map[uuid.UUID]uuid.UUID),
	}
}

var _ store.EmployeeDirectory = (*MockEmployeeDirectory)(nil)

// IsAdmin implements store.EmployeeDirectory.
func (m *MockEmployeeDirectory) IsAdmin(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	if m.IsAdminFn != nil {
		return m.IsAdminFn(ctx, employeeID)
	}
	return m.Admins[employeeID], nil
}

// IsSuperior implements store.EmployeeDirectory by walking the manager chain.
func (m *MockEmployeeDirectory) IsSuperior(ctx context.Context, actorID, employeeID uuid.UUID) (bool, error) {
	if m.IsSuperiorFn != nil {
		return m.IsSuperiorFn(ctx, actorID, employeeID)
	}
	seen := map[uuid.UUID]bool{}
	for cur := m.Managers[employeeID]; cur != uuid.Nil && !seen[cur]; cur = m.Managers[cur] {
		if cur == actorID {
			return true, nil
		}
		seen[cur] = true
	}
	return false, nil
}
