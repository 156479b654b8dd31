package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/recurrence"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// ErrDefinitionInactive is returned when asked to materialize a superseded
// definition.
var ErrDefinitionInactive = errors.New("task definition is not active")

// Config tunes a Materializer.
type Config struct {
	HolidaySearchDays int
	PreloadMarginDays int
	// SweepWorkers bounds how many definitions Sweep processes at once.
	SweepWorkers int
	// Location is the business time zone windows are computed in.
	Location *time.Location
	// Clock returns the current time; nil means time.Now.
	Clock func() time.Time
}

// Options modify a single GenerateRange call.
type Options struct {
	// AllowPast keeps candidates due before now. Catch-up paths set it.
	AllowPast bool
	// IgnorePause bypasses the pause gate.
	IgnorePause bool
	// BatchID tags created instances; zero generates one.
	BatchID uuid.UUID
}

// Materializer generates task instances for definitions.
type Materializer struct {
	definitions store.DefinitionStore
	instances   store.InstanceStore
	preloader   *Preloader
	policy      schedule.HolidayPolicy
	workers     int
	loc         *time.Location
	clock       func() time.Time
	logger      *slog.Logger
}

// NewMaterializer creates a Materializer. It panics on nil stores.
func NewMaterializer(
	definitions store.DefinitionStore,
	instances store.InstanceStore,
	calendar store.CalendarOracle,
	cfg Config,
	logger *slog.Logger,
) *Materializer {
	if definitions == nil {
		panic("definitions cannot be nil")
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
	if cfg.SweepWorkers < 1 {
		cfg.SweepWorkers = 1
	}
	return &Materializer{
		definitions: definitions,
		instances:   instances,
		preloader:   NewPreloader(instances, calendar, cfg.PreloadMarginDays, logger),
		policy:      schedule.NewHolidayPolicy(cfg.HolidaySearchDays),
		workers:     cfg.SweepWorkers,
		loc:         cfg.Location,
		clock:       cfg.Clock,
		logger:      logger.With("component", "materializer"),
	}
}

// Now returns the current time in the business location.
func (m *Materializer) Now() time.Time {
	return m.clock().In(m.loc)
}

// Location returns the business location.
func (m *Materializer) Location() *time.Location {
	return m.loc
}

// RegenerateForWindow materializes the trigger's window for a definition and
// advances its watermark. Running it twice for the same window creates
// nothing the second time.
func (m *Materializer) RegenerateForWindow(ctx context.Context, definitionID uuid.UUID, trigger schedule.Trigger) (*Result, error) {
	def, err := m.definitions.GetByID(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}
	return m.regenerate(ctx, def, trigger)
}

func (m *Materializer) regenerate(ctx context.Context, def *domain.TaskDefinition, trigger schedule.Trigger) (*Result, error) {
	if !def.IsActive() {
		return nil, ErrDefinitionInactive
	}

	w := schedule.ComputeWindow(m.Now(), trigger)
	res, err := m.GenerateRange(ctx, def, w, Options{})
	if err != nil {
		return nil, err
	}

	if len(res.Failures) == 0 {
		if err := m.definitions.AdvanceWatermark(ctx, def.ID, w.End); err != nil {
			return res, fmt.Errorf("failed to advance watermark: %w", err)
		}
		def.AdvanceWatermark(w.End)
	}
	return res, nil
}

// GenerateRange materializes def over w. Skips and per-item failures are
// reported in the result; an error means the run could not start or the
// bulk insert could not be issued.
func (m *Materializer) GenerateRange(ctx context.Context, def *domain.TaskDefinition, w schedule.Window, opts Options) (*Result, error) {
	batchID := opts.BatchID
	if batchID == uuid.Nil {
		batchID = uuid.New()
	}
	log := logger.FromContextOrDefault(ctx, m.logger).With(
		"definition_id", def.ID,
		"batch_id", batchID)

	w = schedule.Window{Start: w.Start.In(m.loc), End: w.End.In(m.loc)}
	res := &Result{DefinitionID: def.ID, BatchID: batchID, Window: w}

	candidates, err := recurrence.Candidates(recurrence.Request{
		Rule:    def.Rule,
		Anchor:  def.StartDate,
		Start:   w.Start,
		End:     w.End,
		DueTime: def.DueTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate recurrence: %w", err)
	}
	res.Candidates = len(candidates)
	if len(candidates) == 0 {
		return res, nil
	}

	sets, err := m.preloader.Preload(ctx, def, w)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	var batch []*domain.TaskInstance
	for _, c := range candidates {
		out := m.evaluate(def, c, now, sets, opts)
		if !out.Accepted() {
			res.Skipped = append(res.Skipped, Skip{Candidate: out.Candidate, Date: out.Date, Reason: out.Skip})
			logSkip(log, out)
			continue
		}
		sets.Existing.Add(out.Date)
		batch = append(batch, domain.NewTaskInstance(def, out.Date, batchID, now))
	}

	if len(batch) > 0 {
		bulk, err := m.instances.BulkCreate(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to create instances: %w", err)
		}
		res.addBulk(bulk)
		for _, f := range bulk.Failures {
			var due time.Time
			if f.Instance != nil {
				due = f.Instance.DueDate
			}
			log.Error("failed to create instance", "due_date", due, "error", f.Err)
		}
	}

	log.Info("materialized window",
		"window", w.String(),
		"candidates", res.Candidates,
		"created", res.Created,
		"duplicates", res.Duplicates,
		"skipped", len(res.Skipped),
		"failed", len(res.Failures))
	return res, nil
}

// evaluate runs one candidate through the series bounds, the past-due rule,
// the pause gate and holiday adjustment. The adjusted date is re-checked so
// a shift cannot move an instance into the past, a pause or outside the
// series.
func (m *Materializer) evaluate(def *domain.TaskDefinition, c, now time.Time, sets *Preloaded, opts Options) schedule.Outcome {
	if reason := m.gate(def, c, now, opts); reason != schedule.SkipNone {
		return schedule.Outcome{Candidate: c, Date: c, Skip: reason}
	}

	out := m.policy.Adjust(c, def.HolidayMode, sets.Holidays, sets.Existing)
	if out.Shifted() {
		if reason := m.gate(def, out.Date, now, opts); reason != schedule.SkipNone {
			out.Skip = reason
		}
	}
	return out
}

func (m *Materializer) gate(def *domain.TaskDefinition, t, now time.Time, opts Options) schedule.SkipReason {
	switch {
	case !def.InSeries(t):
		return schedule.SkipOutsideSeries
	case !opts.AllowPast && t.Before(now):
		return schedule.SkipPastDue
	case !opts.IgnorePause && !schedule.ShouldGenerate(def, t):
		return schedule.SkipPaused
	default:
		return schedule.SkipNone
	}
}

func logSkip(log *slog.Logger, out schedule.Outcome) {
	args := []any{
		"due_date", out.Candidate,
		"adjusted_date", out.Date,
		"skip_reason", out.Skip,
	}
	switch out.Skip {
	case schedule.SkipHolidayExhausted:
		log.Warn("no working day within search bound, skipping candidate", args...)
	default:
		log.Debug("skipping candidate", args...)
	}
}
