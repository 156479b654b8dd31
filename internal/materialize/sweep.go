package materialize

import (
	"context"
	"sync"

	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// SweepResult aggregates a sweep over all active definitions.
type SweepResult struct {
	Trigger     schedule.Trigger `json:"trigger"`
	Definitions int              `json:"definitions"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	Created     int              `json:"created"`
	Skipped     int              `json:"skipped"`
	// Aborted is set when the context was cancelled before every
	// definition was started.
	Aborted bool `json:"aborted"`
}

// Sweep regenerates every active definition for trigger using up to
// SweepWorkers goroutines. A failing definition is logged and counted; it
// never fails the sweep. Cancellation is honoured between definitions only:
// a definition that has started runs to completion, and its partial output
// is picked up idempotently by the next run.
func (m *Materializer) Sweep(ctx context.Context, trigger schedule.Trigger) (*SweepResult, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With("trigger", trigger)

	defs, err := m.definitions.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Trigger: trigger, Definitions: len(defs)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(m.workers)

	// A started definition keeps running after cancellation.
	runCtx := context.WithoutCancel(ctx)

	for _, def := range defs {
		if ctx.Err() != nil {
			res.Aborted = true
			break
		}
		def := def
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				res.Aborted = true
				mu.Unlock()
				return nil
			}

			r, err := m.regenerate(runCtx, def, trigger)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				log.Error("failed to regenerate definition, continuing sweep",
					"definition_id", def.ID,
					"error", err)
				return nil
			}
			res.Succeeded++
			res.Created += r.Created
			res.Skipped += len(r.Skipped)
			return nil
		})
	}
	_ = g.Wait()

	log.Info("sweep finished",
		"definitions", res.Definitions,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"created", res.Created,
		"aborted", res.Aborted)
	return res, nil
}
