package pause

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/recurrence"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultLeadDays           = 7
	DefaultManualMaxRangeDays = 92
)

// SystemActor is recorded as the actor of automatic actions such as pause
// expiry.
var SystemActor = uuid.Nil

// Generator materializes a definition over an explicit window.
// *materialize.Materializer implements it.
type Generator interface {
	GenerateRange(ctx context.Context, def *domain.TaskDefinition, w schedule.Window, opts materialize.Options) (*materialize.Result, error)
}

// Config tunes a Controller.
type Config struct {
	// LeadDays bounds how far from now a pause may start, in either
	// direction.
	LeadDays int
	// ManualMaxRangeDays bounds the span of a ManualGenerate range.
	ManualMaxRangeDays int
	Location           *time.Location
	Clock              func() time.Time
}

// Controller runs the pause/resume state machine.
type Controller struct {
	definitions store.DefinitionStore
	instances   store.InstanceStore
	history     store.PauseHistoryStore
	directory   store.EmployeeDirectory
	generator   Generator
	cfg         Config
	logger      *slog.Logger
}

// NewController creates a Controller. It panics on nil dependencies.
func NewController(
	definitions store.DefinitionStore,
	instances store.InstanceStore,
	history store.PauseHistoryStore,
	directory store.EmployeeDirectory,
	generator Generator,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if definitions == nil {
		panic("definitions cannot be nil")
	}
	if instances == nil {
		panic("instances cannot be nil")
	}
	if history == nil {
		panic("history cannot be nil")
	}
	if directory == nil {
		panic("directory cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LeadDays < 1 {
		cfg.LeadDays = DefaultLeadDays
	}
	if cfg.ManualMaxRangeDays < 1 {
		cfg.ManualMaxRangeDays = DefaultManualMaxRangeDays
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Controller{
		definitions: definitions,
		instances:   instances,
		history:     history,
		directory:   directory,
		generator:   generator,
		cfg:         cfg,
		logger:      logger.With("component", "pause_controller"),
	}
}

func (c *Controller) now() time.Time {
	return c.cfg.Clock().In(c.cfg.Location)
}

// Pause moves an active definition into a paused state and deletes its open
// instances inside the window. Validation and authorization happen before
// anything is written.
func (c *Controller) Pause(ctx context.Context, req PauseRequest) (*PauseResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"definition_id", req.DefinitionID,
		"actor", req.Actor)

	def, err := c.load(ctx, req.DefinitionID)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, def, req.Actor, true); err != nil {
		return nil, err
	}
	if def.Pause != nil {
		return nil, ErrAlreadyPaused
	}

	now := c.now()
	start := req.Start.In(c.cfg.Location)
	lead := time.Duration(c.cfg.LeadDays) * 24 * time.Hour
	if start.Before(now.Add(-lead)) || start.After(now.Add(lead)) {
		return nil, fmt.Errorf("%w: start must be within %d days of now", ErrPauseStartOutOfRange, c.cfg.LeadDays)
	}

	window := domain.PauseWindow{
		Start:    start,
		End:      req.End,
		Reason:   req.Reason,
		Actor:    req.Actor,
		PausedAt: now,
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	def.Pause = &window
	def.UpdatedAt = now
	if err := c.definitions.Update(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to store pause: %w", err)
	}

	res := &PauseResult{Pause: window}
	deleted, err := c.instances.DeleteInRange(ctx, def.ID, window.Start, window.End, true)
	if err != nil {
		res.Partial = true
		log.Error("failed to delete instances inside pause window",
			"error", err,
			"window_start", window.Start)
	}
	res.InstancesDeleted = deleted

	rec := domain.NewPauseHistoryRecord(def.ID, domain.PauseActionPause, req.Actor, now)
	rec.WindowStart = &window.Start
	rec.WindowEnd = window.End
	rec.Reason = window.Reason
	rec.InstancesDeleted = deleted
	c.appendHistory(ctx, log, rec)

	log.Info("paused definition",
		"state", def.PauseState(),
		"window_start", window.Start,
		"instances_deleted", deleted)
	return res, nil
}

// Resume clears the pause. With BackfillMissed and a bounded window it first
// creates the instances the pause suppressed between its end and now; then
// the rest of the current week is regenerated.
func (c *Controller) Resume(ctx context.Context, req ResumeRequest) (*ResumeResult, error) {
	def, err := c.load(ctx, req.DefinitionID)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, def, req.Actor, true); err != nil {
		return nil, err
	}
	if def.Pause == nil {
		return nil, ErrNotPaused
	}
	return c.resume(ctx, def, req.Actor, req.BackfillMissed)
}

func (c *Controller) resume(ctx context.Context, def *domain.TaskDefinition, actor uuid.UUID, backfill bool) (*ResumeResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"definition_id", def.ID,
		"actor", actor)

	now := c.now()
	weekEnd := recurrence.WeekEnd(now)
	window := *def.Pause
	res := &ResumeResult{}

	def.Pause = nil
	def.UpdatedAt = now
	if err := c.definitions.Update(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to clear pause: %w", err)
	}

	// Indefinite pauses have no end to backfill from.
	if backfill && window.End != nil && window.End.Before(now) {
		bw := schedule.Window{Start: window.End.Add(time.Nanosecond), End: now}
		if weekEnd.Before(bw.End) {
			bw.End = weekEnd
		}
		res.BackfillWindow = &bw

		// The backfill sees the pause it replaces, so a holiday shift cannot
		// move an instance back inside the paused days.
		held := *def
		held.Pause = &window
		r, err := c.generator.GenerateRange(ctx, &held, bw, materialize.Options{AllowPast: true})
		if err != nil {
			log.Error("backfill failed", "error", err, "window", bw.String())
		} else {
			res.Backfilled = r
		}
	}

	rw := schedule.Window{Start: now, End: weekEnd}
	r, err := c.generator.GenerateRange(ctx, def, rw, materialize.Options{})
	if err != nil {
		log.Error("post-resume regeneration failed", "error", err, "window", rw.String())
	} else {
		res.Regenerated = r
	}

	rec := domain.NewPauseHistoryRecord(def.ID, domain.PauseActionResume, actor, now)
	rec.WindowStart = &window.Start
	rec.WindowEnd = window.End
	rec.Reason = window.Reason
	rec.InstancesCreated = res.Created()
	c.appendHistory(ctx, log, rec)

	log.Info("resumed definition",
		"backfill", res.BackfillWindow != nil,
		"instances_created", res.Created())
	return res, nil
}

// ManualGenerate creates instances over an explicit range, paused or not.
// Only the owner's superiors and admins may call it.
func (c *Controller) ManualGenerate(ctx context.Context, req ManualGenerateRequest) (*materialize.Result, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		"definition_id", req.DefinitionID,
		"actor", req.Actor)

	def, err := c.load(ctx, req.DefinitionID)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, def, req.Actor, false); err != nil {
		return nil, err
	}

	w := schedule.Window{
		Start: domain.StartOfDay(req.Start.In(c.cfg.Location)),
		End:   domain.EndOfDay(req.End.In(c.cfg.Location)),
	}
	if w.End.Before(w.Start) {
		return nil, fmt.Errorf("%w: end is before start", ErrInvalidRange)
	}
	if days := int(w.End.Sub(w.Start)/(24*time.Hour)) + 1; days > c.cfg.ManualMaxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidRange, days, c.cfg.ManualMaxRangeDays)
	}

	res, err := c.generator.GenerateRange(ctx, def, w, materialize.Options{AllowPast: true, IgnorePause: true})
	if err != nil {
		return nil, err
	}

	rec := domain.NewPauseHistoryRecord(def.ID, domain.PauseActionManualGenerate, req.Actor, c.now())
	rec.WindowStart = &w.Start
	rec.WindowEnd = &w.End
	rec.InstancesCreated = res.Created
	c.appendHistory(ctx, log, rec)

	return res, nil
}

// GetPauseStatus returns the pause state of a definition.
func (c *Controller) GetPauseStatus(ctx context.Context, definitionID uuid.UUID) (*PauseStatus, error) {
	def, err := c.definitions.GetByID(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	status := &PauseStatus{
		DefinitionID:   def.ID,
		State:          def.PauseState(),
		Pause:          def.Pause,
		GeneratedUntil: def.GeneratedUntil,
	}
	if def.Pause != nil {
		status.CurrentlyPaused = def.Pause.ActiveAt(c.now())
	}
	return status, nil
}

// GetPauseHistory returns the audit trail of a definition, newest first.
func (c *Controller) GetPauseHistory(ctx context.Context, definitionID uuid.UUID) ([]*domain.PauseHistoryRecord, error) {
	if _, err := c.definitions.GetByID(ctx, definitionID); err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	return c.history.ListByDefinition(ctx, definitionID)
}

// ExpirePauses resumes every active definition whose bounded pause has
// ended, without backfill. It returns how many were resumed. A failure on
// one definition is logged and does not stop the others.
func (c *Controller) ExpirePauses(ctx context.Context) (int, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	defs, err := c.definitions.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list definitions: %w", err)
	}

	now := c.now()
	resumed := 0
	for _, def := range defs {
		if ctx.Err() != nil {
			break
		}
		if def.Pause == nil || !def.Pause.ExpiredAt(now) {
			continue
		}
		if _, err := c.resume(ctx, def, SystemActor, false); err != nil {
			log.Error("failed to expire pause", "definition_id", def.ID, "error", err)
			continue
		}
		resumed++
	}
	if resumed > 0 {
		log.Info("expired pauses", "resumed", resumed)
	}
	return resumed, nil
}

func (c *Controller) load(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error) {
	def, err := c.definitions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	if !def.IsActive() {
		return nil, materialize.ErrDefinitionInactive
	}
	return def, nil
}

// authorize admits admins, superiors of the owner and, when allowOwner is
// set, the owner.
func (c *Controller) authorize(ctx context.Context, def *domain.TaskDefinition, actor uuid.UUID, allowOwner bool) error {
	if actor == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if allowOwner && actor == def.OwnerID {
		return nil
	}

	admin, err := c.directory.IsAdmin(ctx, actor)
	if err != nil {
		return fmt.Errorf("failed to check admin role: %w", err)
	}
	if admin {
		return nil
	}

	superior, err := c.directory.IsSuperior(ctx, actor, def.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to check reporting chain: %w", err)
	}
	if superior {
		return nil
	}
	return fmt.Errorf("%w: actor %s may not act on definition %s", domain.ErrUnauthorized, actor, def.ID)
}

func (c *Controller) appendHistory(ctx context.Context, log *slog.Logger, rec *domain.PauseHistoryRecord) {
	if err := c.history.Append(ctx, rec); err != nil {
		log.Error("failed to append pause history",
			"action", rec.Action,
			"error", err)
	}
}
