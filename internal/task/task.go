package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a persisted task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeRegeneration materializes the current window of one definition.
const TaskTypeRegeneration = "definition_regeneration"

// Task is a unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON stored with the task and handed back to the
	// task's factory on recovery.
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// Record is a task as stored, without its behaviour. The runner turns
// records back into tasks through a Registry.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore persists tasks.
type TaskStore interface {
	SaveTask(ctx context.Context, task Task) error
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
	GetPendingTasks(ctx context.Context) ([]Record, error)
	// GetProcessingTasks returns processing tasks whose last update is older
	// than olderThan; zero returns all of them.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)
	WithTx(tx *sql.Tx) TaskStore
}
