package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/cadence/internal/config"
	"github.com/phrazzld/cadence/internal/events"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/pause"
	"github.com/phrazzld/cadence/internal/platform/calendarfile"
	"github.com/phrazzld/cadence/internal/platform/postgres"
	"github.com/phrazzld/cadence/internal/redact"
	"github.com/phrazzld/cadence/internal/service"
	"github.com/phrazzld/cadence/internal/service/auth"
	"github.com/phrazzld/cadence/internal/store"
	"github.com/phrazzld/cadence/internal/task"
)

// application holds the shared dependencies so they can be torn down in
// order on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	loc    *time.Location

	definitionStore store.DefinitionStore
	instanceStore   store.InstanceStore
	historyStore    store.PauseHistoryStore
	taskStore       task.TaskStore
	directory       store.EmployeeDirectory
	calendar        store.CalendarOracle

	jwtService        auth.JWTService
	materializer      *materialize.Materializer
	pauseController   *pause.Controller
	definitionService service.DefinitionService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	scheduler    *task.Scheduler
}

// newApplication wires every component. The task runner is started here so
// that tasks recovered from a previous run are resumed before the server
// accepts traffic.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load business time zone: %w", err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		loc:    loc,
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.definitionStore = postgres.NewPostgresDefinitionStore(db, logger)
	app.instanceStore = postgres.NewPostgresInstanceStore(db, logger)
	app.historyStore = postgres.NewPostgresPauseHistoryStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.directory = postgres.NewPostgresEmployeeDirectory(db, logger)

	app.calendar, err = setupCalendar(cfg.Calendar, db, loc, logger)
	if err != nil {
		return nil, err
	}

	app.materializer = materialize.NewMaterializer(
		app.definitionStore,
		app.instanceStore,
		app.calendar,
		materialize.Config{
			HolidaySearchDays: cfg.Engine.HolidaySearchDays,
			PreloadMarginDays: cfg.Engine.PreloadMarginDays,
			SweepWorkers:      cfg.Scheduler.SweepWorkers,
			Location:          loc,
		},
		logger,
	)

	app.pauseController = pause.NewController(
		app.definitionStore,
		app.instanceStore,
		app.historyStore,
		app.directory,
		app.materializer,
		pause.Config{
			LeadDays:           cfg.Engine.PauseLeadDays,
			ManualMaxRangeDays: cfg.Engine.ManualMaxRangeDays,
			Location:           loc,
		},
		logger,
	)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.definitionService, err = service.NewDefinitionService(
		db,
		app.definitionStore,
		app.instanceStore,
		app.directory,
		app.eventEmitter,
		service.DefinitionServiceConfig{Location: loc},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create definition service: %w", err)
	}

	factory := task.NewRegenerationTaskFactory(app.materializer, logger)
	registry := task.NewRegistry()
	registry.Register(task.TaskTypeRegeneration, factory.FromRecord)

	app.taskRunner, err = setupTaskRunner(app, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))

	if cfg.Scheduler.Enabled {
		job := task.NewSweepJob(app.pauseController, app.materializer, logger)
		app.scheduler, err = task.NewScheduler(cfg.Scheduler.CronSpec, loc, job, logger)
		if err != nil {
			app.taskRunner.Stop()
			return nil, fmt.Errorf("failed to create scheduler: %w", err)
		}
	}

	logger.Info("application initialized",
		slog.String("timezone", loc.String()),
		slog.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		slog.Bool("calendar_file", cfg.Calendar.File != ""))
	return app, nil
}

// setupCalendar returns the YAML-backed oracle when a calendar file is
// configured and the database-backed one otherwise.
func setupCalendar(
	cfg config.CalendarConfig,
	db *sql.DB,
	loc *time.Location,
	logger *slog.Logger,
) (store.CalendarOracle, error) {
	if cfg.File == "" {
		return postgres.NewPostgresCalendarOracle(db, loc, logger), nil
	}
	oracle, err := calendarfile.Load(cfg.File, loc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar file: %w", err)
	}
	return oracle, nil
}

// setupTaskRunner creates and starts the background task runner.
func setupTaskRunner(app *application, registry *task.Registry) (*task.TaskRunner, error) {
	cfg := task.DefaultTaskRunnerConfig()
	cfg.QueueSize = app.config.Task.QueueSize
	cfg.WorkerCount = app.config.Task.WorkerCount
	cfg.StuckTaskAge = time.Duration(app.config.Task.StuckTaskAgeMinutes) * time.Minute

	runner := task.NewTaskRunner(app.taskStore, registry, cfg, app.logger)
	runner.SetErrorHandler(func(t task.Task, err error) {
		// The definition is picked up again by the next sweep.
		app.logger.Warn("background task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", redact.Error(err)))
	})

	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	return runner, nil
}

// Run starts the scheduler and serves HTTP until ctx is cancelled or a
// shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work before closing the database.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
