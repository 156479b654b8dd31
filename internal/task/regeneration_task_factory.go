package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain/schedule"
)

// RegenerationTaskFactory creates RegenerationTasks bound to one
// Regenerator.
type RegenerationTaskFactory struct {
	regenerator Regenerator
	logger      *slog.Logger
}

// NewRegenerationTaskFactory creates a factory. It panics on a nil
// regenerator.
func NewRegenerationTaskFactory(regenerator Regenerator, logger *slog.Logger) *RegenerationTaskFactory {
	if regenerator == nil {
		panic("regenerator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegenerationTaskFactory{
		regenerator: regenerator,
		logger:      logger.With("component", "regeneration_task_factory"),
	}
}

// CreateTask creates a new task for definitionID.
func (f *RegenerationTaskFactory) CreateTask(definitionID uuid.UUID, trigger schedule.Trigger) (Task, error) {
	return NewRegenerationTask(definitionID, trigger, f.regenerator, f.logger)
}

// FromRecord rebuilds a stored task, keeping its ID. It is registered with
// the runner's Registry.
func (f *RegenerationTaskFactory) FromRecord(rec Record) (Task, error) {
	var p regenerationPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode regeneration payload: %w", err)
	}
	return newRegenerationTask(rec.ID, p.DefinitionID, p.Trigger, f.regenerator, f.logger)
}
