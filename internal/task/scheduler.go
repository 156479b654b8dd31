package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/robfig/cron/v3"
)

// PauseExpirer resumes definitions whose bounded pause has ended.
// *pause.Controller implements it.
type PauseExpirer interface {
	ExpirePauses(ctx context.Context) (int, error)
}

// Sweeper regenerates every active definition.
// *materialize.Materializer implements it.
type Sweeper interface {
	Sweep(ctx context.Context, trigger schedule.Trigger) (*materialize.SweepResult, error)
}

// SweepJob is the periodic job: expire finished pauses, then sweep all
// active definitions with the scheduled trigger.
type SweepJob struct {
	expirer PauseExpirer
	sweeper Sweeper
	logger  *slog.Logger
}

// NewSweepJob creates a SweepJob. It panics on nil dependencies.
func NewSweepJob(expirer PauseExpirer, sweeper Sweeper, logger *slog.Logger) *SweepJob {
	if expirer == nil {
		panic("expirer cannot be nil")
	}
	if sweeper == nil {
		panic("sweeper cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepJob{expirer: expirer, sweeper: sweeper, logger: logger.With("component", "sweep_job")}
}

// Run executes one sweep. Pause expiry failures are logged and do not stop
// the sweep.
func (j *SweepJob) Run(ctx context.Context) (*materialize.SweepResult, error) {
	log := logger.FromContextOrDefault(ctx, j.logger)
	start := time.Now()

	if _, err := j.expirer.ExpirePauses(ctx); err != nil {
		log.Error("failed to expire pauses", "error", err)
	}

	res, err := j.sweeper.Sweep(ctx, schedule.TriggerScheduled)
	if err != nil {
		return nil, fmt.Errorf("sweep failed: %w", err)
	}

	log.Info("sweep job finished", "duration", time.Since(start))
	return res, nil
}

// Scheduler fires a SweepJob on a cron spec. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	job    *SweepJob
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewScheduler registers job under spec, a six-field cron expression with
// seconds, evaluated in loc.
func NewScheduler(spec string, loc *time.Location, job *SweepJob, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		panic("job cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	cl := cronLogger{logger}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:    job,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if _, err := s.job.Run(s.ctx); err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
	}
}

// Start begins firing the job.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("scheduler started", "next_run", e.Next)
	}
}

// Stop cancels a running sweep between definitions and waits for it to
// return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
