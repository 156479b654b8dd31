package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/platform/logger"
)

var (
	ErrNilRegenerator     = errors.New("regenerator cannot be nil")
	ErrEmptyDefinitionID  = errors.New("definition ID cannot be empty")
	ErrInvalidTaskTrigger = errors.New("invalid trigger")
)

// Regenerator materializes a definition's window.
// *materialize.Materializer implements it.
type Regenerator interface {
	RegenerateForWindow(ctx context.Context, definitionID uuid.UUID, trigger schedule.Trigger) (*materialize.Result, error)
}

type regenerationPayload struct {
	DefinitionID uuid.UUID        `json:"definition_id"`
	Trigger      schedule.Trigger `json:"trigger"`
}

// RegenerationTask runs RegenerateForWindow for one definition.
type RegenerationTask struct {
	id           uuid.UUID
	definitionID uuid.UUID
	trigger      schedule.Trigger
	regenerator  Regenerator
	logger       *slog.Logger
	status       TaskStatus
}

var _ Task = (*RegenerationTask)(nil)

// NewRegenerationTask creates a pending task with a fresh ID.
func NewRegenerationTask(
	definitionID uuid.UUID,
	trigger schedule.Trigger,
	regenerator Regenerator,
	logger *slog.Logger,
) (*RegenerationTask, error) {
	return newRegenerationTask(uuid.New(), definitionID, trigger, regenerator, logger)
}

func newRegenerationTask(
	id, definitionID uuid.UUID,
	trigger schedule.Trigger,
	regenerator Regenerator,
	logger *slog.Logger,
) (*RegenerationTask, error) {
	if regenerator == nil {
		return nil, ErrNilRegenerator
	}
	if definitionID == uuid.Nil {
		return nil, ErrEmptyDefinitionID
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTaskTrigger, trigger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegenerationTask{
		id:           id,
		definitionID: definitionID,
		trigger:      trigger,
		regenerator:  regenerator,
		logger:       logger,
		status:       TaskStatusPending,
	}, nil
}

func (t *RegenerationTask) ID() uuid.UUID { return t.id }

func (t *RegenerationTask) Type() string { return TaskTypeRegeneration }

func (t *RegenerationTask) Status() TaskStatus { return t.status }

// DefinitionID returns the definition this task regenerates.
func (t *RegenerationTask) DefinitionID() uuid.UUID { return t.definitionID }

// Payload returns the JSON the task is stored with.
func (t *RegenerationTask) Payload() []byte {
	data, err := json.Marshal(regenerationPayload{DefinitionID: t.definitionID, Trigger: t.trigger})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// Execute regenerates the window. A definition superseded since the task
// was queued has nothing left to do and completes the task.
func (t *RegenerationTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.logger).With(
		"definition_id", t.definitionID,
		"trigger", t.trigger)
	t.status = TaskStatusProcessing

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled: %w", err)
	}

	res, err := t.regenerator.RegenerateForWindow(ctx, t.definitionID, t.trigger)
	switch {
	case errors.Is(err, materialize.ErrDefinitionInactive):
		log.Info("definition no longer active, nothing to regenerate")
	case err != nil:
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to regenerate definition: %w", err)
	default:
		log.Info("regeneration finished",
			"created", res.Created,
			"skipped", len(res.Skipped),
			"skipped_paused", res.SkipCount(schedule.SkipPaused),
			"skipped_past_due", res.SkipCount(schedule.SkipPastDue),
			"failed", len(res.Failures))
	}

	t.status = TaskStatusCompleted
	return nil
}
