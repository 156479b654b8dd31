package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// DefaultPreloadMarginDays widens preload queries on both sides of a window
// so holiday shifts that leave the window still see existing instances.
const DefaultPreloadMarginDays = 30

// Preloaded holds the lookup sets for one definition and window. Both sets
// are owned by the caller, which adds accepted dates to Existing as it goes.
type Preloaded struct {
	// Window is the extended window that was queried.
	Window   schedule.Window
	Existing *domain.DateSet
	Holidays *domain.DateSet
}

// Preloader batches the instance and holiday lookups for a run.
type Preloader struct {
	instances store.InstanceStore
	calendar  store.CalendarOracle
	margin    int
	logger    *slog.Logger
}

// NewPreloader creates a Preloader. marginDays below 1 uses
// DefaultPreloadMarginDays.
func NewPreloader(instances store.InstanceStore, calendar store.CalendarOracle, marginDays int, logger *slog.Logger) *Preloader {
	if instances == nil {
		panic("instances cannot be nil")
	}
	if calendar == nil {
		panic("calendar cannot be nil")
	}
	if marginDays < 1 {
		marginDays = DefaultPreloadMarginDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Preloader{
		instances: instances,
		calendar:  calendar,
		margin:    marginDays,
		logger:    logger.With("component", "preloader"),
	}
}

// Preload issues exactly one instance query and one holiday query for def
// over w extended by the margin. Sets are keyed in w's location. Optional
// holidays only count when they are non-working for the assignee.
func (p *Preloader) Preload(ctx context.Context, def *domain.TaskDefinition, w schedule.Window) (*Preloaded, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)
	wide := w.Extend(p.margin)
	loc := w.Start.Location()

	dates, err := p.instances.QueryDates(ctx, def.ID, wide.Start, wide.End)
	if err != nil {
		return nil, fmt.Errorf("failed to preload existing instances: %w", err)
	}

	holidays, err := p.calendar.GetHolidays(ctx, def.AssignedTo, wide.Start, wide.End)
	if err != nil {
		return nil, fmt.Errorf("failed to preload holidays: %w", err)
	}

	out := &Preloaded{
		Window:   wide,
		Existing: domain.NewDateSet(def.Rule.Granularity(), loc, dates...),
		Holidays: domain.NewDateSet(domain.GranularityDay, loc),
	}
	for _, h := range holidays {
		if !h.NonWorking() {
			continue
		}
		// Holidays are calendar dates; key them by their own Y-M-D rather
		// than converting the instant into loc.
		y, m, d := h.Date.Date()
		out.Holidays.Add(time.Date(y, m, d, 0, 0, 0, 0, loc))
	}

	log.Debug("preloaded lookup sets",
		"definition_id", def.ID,
		"existing", out.Existing.Len(),
		"holidays", out.Holidays.Len(),
		"window", wide.String())
	return out, nil
}
