package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/events"
	"github.com/phrazzld/cadence/internal/platform/logger"
)

// Submitter accepts tasks for background execution. *TaskRunner
// implements it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns regeneration events into tasks and submits
// them.
type TaskFactoryEventHandler struct {
	factory   *RegenerationTaskFactory
	submitter Submitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates the handler.
func NewTaskFactoryEventHandler(factory *RegenerationTaskFactory, submitter Submitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if submitter == nil {
		panic("submitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent implements events.EventHandler. Events of other types are
// ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger).With(
		"event_id", event.ID,
		"event_type", event.Type)

	if event.Type != events.TypeDefinitionRegeneration {
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	var payload events.RegenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	trigger := schedule.Trigger(payload.Trigger)
	if trigger == "" {
		trigger = schedule.TriggerManual
	}

	task, err := h.factory.CreateTask(payload.DefinitionID, trigger)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, task); err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("regeneration task submitted",
		"task_id", task.ID(),
		"definition_id", payload.DefinitionID)
	return nil
}
