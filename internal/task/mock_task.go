package task

import (
	"context"

	"github.com/google/uuid"
)

// MockTaskType is the type reported by MockTask.
const MockTaskType = "mock_task"

// MockTask is a Task whose behaviour is set by ExecuteFn.
type MockTask struct {
	TaskID      uuid.UUID
	TaskPayload []byte
	TaskStatus  TaskStatus
	ExecuteFn   func(ctx context.Context) error
}

var _ Task = (*MockTask)(nil)

// NewMockTask creates a pending MockTask that succeeds.
func NewMockTask() *MockTask {
	return &MockTask{
		TaskID:      uuid.New(),
		TaskPayload: []byte("{}"),
		TaskStatus:  TaskStatusPending,
	}
}

func (t *MockTask) ID() uuid.UUID      { return t.TaskID }
func (t *MockTask) Type() string       { return MockTaskType }
func (t *MockTask) Payload() []byte    { return t.TaskPayload }
func (t *MockTask) Status() TaskStatus { return t.TaskStatus }

func (t *MockTask) Execute(ctx context.Context) error {
	if t.ExecuteFn != nil {
		return t.ExecuteFn(ctx)
	}
	return nil
}
