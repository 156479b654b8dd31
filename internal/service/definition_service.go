package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/recurrence"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/events"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

const serviceName = "definition"

// CreateDefinitionRequest describes a new definition. The actor becomes its
// owner. A nil StartDate anchors the series on today.
type CreateDefinitionRequest struct {
	Name        string
	Description string
	AssignedTo  uuid.UUID
	Rule        domain.RecurrenceRule
	DueTime     domain.TimeOfDay
	HolidayMode domain.HolidayMode
	StartDate   *time.Time
	EndDate     *time.Time
	Actor       uuid.UUID
}

// UpdateDefinitionRequest carries the fields to change; nil fields are left
// alone. ClearEndDate reopens a closed series and wins over EndDate.
type UpdateDefinitionRequest struct {
	Name         *string
	Description  *string
	AssignedTo   *uuid.UUID
	Rule         *domain.RecurrenceRule
	DueTime      *domain.TimeOfDay
	HolidayMode  *domain.HolidayMode
	EndDate      *time.Time
	ClearEndDate bool
	Actor        uuid.UUID
}

// UpdateResult reports what an edit did. Definition is the successor when
// the edit superseded the original.
type UpdateResult struct {
	Definition       *domain.TaskDefinition `json:"definition"`
	Superseded       bool                   `json:"superseded"`
	PreviousID       *uuid.UUID             `json:"previous_id,omitempty"`
	InstancesDeleted int                    `json:"instances_deleted"`
}

// DefinitionService manages the lifecycle of task definitions.
type DefinitionService interface {
	Create(ctx context.Context, req CreateDefinitionRequest) (*domain.TaskDefinition, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error)
	// Update edits a definition. Changing the rule or the name supersedes it:
	// the original is retired, its open instances from now on are deleted
	// and a successor takes over with a fresh watermark.
	Update(ctx context.Context, id uuid.UUID, req UpdateDefinitionRequest) (*UpdateResult, error)
	// ListInstances returns the instances of a definition due in [from, to].
	ListInstances(ctx context.Context, id uuid.UUID, from, to time.Time) ([]*domain.TaskInstance, error)
}

// DefinitionServiceConfig holds the business location and clock.
type DefinitionServiceConfig struct {
	Location *time.Location
	Clock    func() time.Time
}

type definitionService struct {
	db          *sql.DB
	definitions store.DefinitionStore
	instances   store.InstanceStore
	directory   store.EmployeeDirectory
	emitter     events.EventEmitter
	loc         *time.Location
	clock       func() time.Time
	logger      *slog.Logger
}

// NewDefinitionService creates a DefinitionService. It returns an error if a
// required dependency is nil.
func NewDefinitionService(
	db *sql.DB,
	definitions store.DefinitionStore,
	instances store.InstanceStore,
	directory store.EmployeeDirectory,
	emitter events.EventEmitter,
	cfg DefinitionServiceConfig,
	logger *slog.Logger,
) (DefinitionService, error) {
	switch {
	case db == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("db cannot be nil")}
	case definitions == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("definitions cannot be nil")}
	case instances == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("instances cannot be nil")}
	case directory == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("directory cannot be nil")}
	case emitter == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("emitter cannot be nil")}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &definitionService{
		db:          db,
		definitions: definitions,
		instances:   instances,
		directory:   directory,
		emitter:     emitter,
		loc:         cfg.Location,
		clock:       cfg.Clock,
		logger:      logger.With("component", "definition_service"),
	}, nil
}

func (s *definitionService) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *definitionService) Create(ctx context.Context, req CreateDefinitionRequest) (*domain.TaskDefinition, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("actor", req.Actor)
	now := s.now()

	start := now
	if req.StartDate != nil {
		start = req.StartDate.In(s.loc)
	}
	mode := req.HolidayMode
	if mode == "" {
		mode = domain.HolidayModeIgnore
	}

	def, err := domain.NewTaskDefinition(req.Name, req.Actor, req.AssignedTo, req.Rule, req.DueTime, mode, start)
	if err != nil {
		return nil, NewServiceError(serviceName, "create", err)
	}
	def.Description = strings.TrimSpace(req.Description)
	def.EndDate = req.EndDate
	def.CreatedAt, def.UpdatedAt = now, now
	if err := def.Validate(); err != nil {
		return nil, NewServiceError(serviceName, "create", err)
	}

	if err := s.definitions.Create(ctx, def); err != nil {
		log.Error("failed to save definition", "error", err)
		return nil, NewServiceError(serviceName, "create", err)
	}

	log.Info("definition created", "definition_id", def.ID)
	s.requestRegeneration(ctx, def.ID)
	return def, nil
}

func (s *definitionService) Get(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error) {
	def, err := s.definitions.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError(serviceName, "get", err)
	}
	return def, nil
}

func (s *definitionService) Update(ctx context.Context, id uuid.UUID, req UpdateDefinitionRequest) (*UpdateResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"definition_id", id,
		"actor", req.Actor)

	current, err := s.definitions.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError(serviceName, "update", err)
	}
	if !current.IsActive() {
		return nil, ErrDefinitionSuperseded
	}
	if err := s.authorize(ctx, current, req.Actor); err != nil {
		return nil, err
	}

	if s.supersedes(current, req) {
		return s.supersede(ctx, log, current, req)
	}

	updated := *current
	applyEdits(&updated, req)
	updated.UpdatedAt = s.now()
	if err := updated.Validate(); err != nil {
		return nil, NewServiceError(serviceName, "update", err)
	}
	if err := s.definitions.Update(ctx, &updated); err != nil {
		log.Error("failed to update definition", "error", err)
		return nil, NewServiceError(serviceName, "update", err)
	}

	log.Info("definition updated in place")
	return &UpdateResult{Definition: &updated}, nil
}

func (s *definitionService) supersedes(def *domain.TaskDefinition, req UpdateDefinitionRequest) bool {
	if req.Rule != nil && !req.Rule.Equal(def.Rule) {
		return true
	}
	return req.Name != nil && strings.TrimSpace(*req.Name) != def.Name
}

// supersede retires current and creates its successor in one transaction.
// The successor keeps the original anchor, so weekday, month day and
// interval phase carry over, and it inherits any pause. Past slots are not
// refilled: generation drops past-due candidates.
func (s *definitionService) supersede(
	ctx context.Context,
	log *slog.Logger,
	current *domain.TaskDefinition,
	req UpdateDefinitionRequest,
) (*UpdateResult, error) {
	now := s.now()

	next := *current
	applyEdits(&next, req)

	successor, err := domain.NewTaskDefinition(next.Name, current.OwnerID, next.AssignedTo, next.Rule, next.DueTime, next.HolidayMode, current.StartDate)
	if err != nil {
		return nil, NewServiceError(serviceName, "update", err)
	}
	successor.Description = next.Description
	successor.EndDate = next.EndDate
	successor.Pause = current.Pause
	successor.CreatedAt, successor.UpdatedAt = now, now
	if err := successor.Validate(); err != nil {
		return nil, NewServiceError(serviceName, "update", err)
	}

	retired := *current
	retired.Supersede(successor, now)

	res := &UpdateResult{Definition: successor, Superseded: true, PreviousID: &current.ID}
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		defs := s.definitions.WithTx(tx)
		if err := defs.Create(ctx, successor); err != nil {
			return fmt.Errorf("failed to create successor: %w", err)
		}
		if err := defs.Update(ctx, &retired); err != nil {
			return fmt.Errorf("failed to retire definition: %w", err)
		}
		deleted, err := s.instances.WithTx(tx).DeleteInRange(ctx, current.ID, now, nil, true)
		if err != nil {
			return fmt.Errorf("failed to delete future instances: %w", err)
		}
		res.InstancesDeleted = deleted
		return nil
	})
	if err != nil {
		log.Error("failed to supersede definition", "error", err)
		return nil, NewServiceError(serviceName, "supersede", err)
	}

	log.Info("definition superseded",
		"successor_id", successor.ID,
		"instances_deleted", res.InstancesDeleted)
	s.requestRegeneration(ctx, successor.ID)
	return res, nil
}

func (s *definitionService) ListInstances(ctx context.Context, id uuid.UUID, from, to time.Time) ([]*domain.TaskInstance, error) {
	if _, err := s.definitions.GetByID(ctx, id); err != nil {
		return nil, NewServiceError(serviceName, "list_instances", err)
	}

	now := s.now()
	if from.IsZero() {
		from = recurrence.WeekStart(now)
	}
	if to.IsZero() {
		to = recurrence.WeekEnd(from)
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	instances, err := s.instances.ListByDefinition(ctx, id, from, to)
	if err != nil {
		return nil, NewServiceError(serviceName, "list_instances", err)
	}
	return instances, nil
}

// authorize admits the owner and admins.
func (s *definitionService) authorize(ctx context.Context, def *domain.TaskDefinition, actor uuid.UUID) error {
	if actor != uuid.Nil && actor == def.OwnerID {
		return nil
	}
	if actor != uuid.Nil {
		admin, err := s.directory.IsAdmin(ctx, actor)
		if err != nil {
			return NewServiceError(serviceName, "authorize", err)
		}
		if admin {
			return nil
		}
	}
	return fmt.Errorf("%w: actor %s may not edit definition %s", domain.ErrUnauthorized, actor, def.ID)
}

// requestRegeneration asks the background runner to materialize the current
// week. Failures are logged; the periodic sweep picks the definition up.
func (s *definitionService) requestRegeneration(ctx context.Context, id uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("definition_id", id)

	event, err := events.NewRegenerationEvent(id, string(schedule.TriggerManual))
	if err != nil {
		log.Error("failed to build regeneration event", "error", err)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit regeneration event, the next sweep will cover it",
			"error", err,
			"event_id", event.ID)
	}
}

func applyEdits(def *domain.TaskDefinition, req UpdateDefinitionRequest) {
	if req.Name != nil {
		def.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		def.Description = strings.TrimSpace(*req.Description)
	}
	if req.AssignedTo != nil {
		def.AssignedTo = *req.AssignedTo
	}
	if req.Rule != nil {
		def.Rule = *req.Rule
	}
	if req.DueTime != nil {
		def.DueTime = *req.DueTime
	}
	if req.HolidayMode != nil {
		def.HolidayMode = *req.HolidayMode
	}
	switch {
	case req.ClearEndDate:
		def.EndDate = nil
	case req.EndDate != nil:
		def.EndDate = req.EndDate
	}
}
