package pause

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/mocks"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	def        *domain.TaskDefinition
	owner      uuid.UUID
	manager    uuid.UUID
	admin      uuid.UUID
	definition *mocks.MockDefinitionStore
	instances  *mocks.MockInstanceStore
	history    *mocks.MockPauseHistoryStore
	directory  *mocks.MockEmployeeDirectory
	calendar   *mocks.MockCalendarOracle
	now        time.Time
	c          *Controller
}

// newFixture builds a controller over a daily definition anchored on
// 2024-01-01 with the clock fixed at now.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		owner:   uuid.New(),
		manager: uuid.New(),
		admin:   uuid.New(),
		now:     now,
	}
	def, err := domain.NewTaskDefinition("Open the store", f.owner, uuid.New(),
		domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1},
		domain.TimeOfDay{Hour: 9}, domain.HolidayModeIgnore, date(2024, 1, 1))
	require.NoError(t, err)
	f.def = def

	f.definition = mocks.NewMockDefinitionStore(def)
	f.instances = mocks.NewMockInstanceStore()
	f.history = mocks.NewMockPauseHistoryStore()
	f.directory = mocks.NewMockEmployeeDirectory()
	f.calendar = mocks.NewMockCalendarOracle()
	f.directory.Managers[f.owner] = f.manager
	f.directory.Admins[f.admin] = true

	log, _ := logger.NewTestLogger(t)
	clock := func() time.Time { return f.now }
	gen := materialize.NewMaterializer(f.definition, f.instances, f.calendar, materialize.Config{
		Location: time.UTC,
		Clock:    clock,
	}, log)
	f.c = NewController(f.definition, f.instances, f.history, f.directory, gen, Config{
		LeadDays:           7,
		ManualMaxRangeDays: 31,
		Location:           time.UTC,
		Clock:              clock,
	}, log)
	return f
}

func (f *fixture) seedDays(days ...time.Time) {
	for _, d := range days {
		f.instances.Seed(domain.NewTaskInstance(f.def, d.Add(9*time.Hour), uuid.New(), d))
	}
}

func dueKeys(instances []*domain.TaskInstance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = domain.DateKey(inst.DueDate)
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestPause_DeletesOpenInstancesInWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	f.seedDays(date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3), date(2024, 1, 4), date(2024, 1, 5))
	done := domain.NewTaskInstance(f.def, date(2024, 1, 3).Add(9*time.Hour), uuid.New(), f.now)
	done.Status = domain.InstanceStatusCompleted
	done.SlotKey = "2024-01-03-completed"
	f.instances.Seed(done)

	res, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 1, 2),
		End:          ptr(domain.EndOfDay(date(2024, 1, 3))),
		Reason:       "inventory",
		Actor:        f.owner,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.InstancesDeleted)
	assert.False(t, res.Partial)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05"}, dueKeys(f.instances.All(f.def.ID)))

	stored := f.definition.Get(f.def.ID)
	require.NotNil(t, stored.Pause)
	assert.Equal(t, domain.PauseStatePausedBounded, stored.PauseState())
	assert.Equal(t, f.now, stored.Pause.PausedAt)

	require.Len(t, f.history.Records, 1)
	rec := f.history.Records[0]
	assert.Equal(t, domain.PauseActionPause, rec.Action)
	assert.Equal(t, 2, rec.InstancesDeleted)
	assert.Equal(t, "inventory", rec.Reason)
	assert.Equal(t, f.owner, rec.Actor)
}

func TestPause_Rejections(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	stranger := uuid.New()

	tests := []struct {
		name    string
		mutate  func(t *testing.T, f *fixture, req *PauseRequest)
		wantErr error
	}{
		{
			name:    "unauthorized actor",
			mutate:  func(_ *testing.T, _ *fixture, req *PauseRequest) { req.Actor = stranger },
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "missing actor",
			mutate:  func(_ *testing.T, _ *fixture, req *PauseRequest) { req.Actor = uuid.Nil },
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "start too far in the past",
			mutate:  func(_ *testing.T, _ *fixture, req *PauseRequest) { req.Start = now.AddDate(0, 0, -8) },
			wantErr: ErrPauseStartOutOfRange,
		},
		{
			name:    "start too far ahead",
			mutate:  func(_ *testing.T, _ *fixture, req *PauseRequest) { req.Start = now.AddDate(0, 0, 8) },
			wantErr: ErrPauseStartOutOfRange,
		},
		{
			name:    "end before start",
			mutate:  func(_ *testing.T, _ *fixture, req *PauseRequest) { req.End = ptr(req.Start.Add(-time.Hour)) },
			wantErr: ErrInvalidPauseWindow,
		},
		{
			name: "already paused",
			mutate: func(t *testing.T, f *fixture, _ *PauseRequest) {
				def := f.definition.Get(f.def.ID)
				def.Pause = &domain.PauseWindow{Start: now}
				require.NoError(t, f.definition.Update(context.Background(), def))
			},
			wantErr: ErrAlreadyPaused,
		},
		{
			name: "superseded definition",
			mutate: func(t *testing.T, f *fixture, _ *PauseRequest) {
				def := f.definition.Get(f.def.ID)
				def.Status = domain.DefinitionStatusSuperseded
				require.NoError(t, f.definition.Update(context.Background(), def))
			},
			wantErr: materialize.ErrDefinitionInactive,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, now)
			f.seedDays(date(2024, 1, 11))
			req := PauseRequest{DefinitionID: f.def.ID, Start: now, Actor: f.owner}
			tc.mutate(t, f, &req)
			updates := f.definition.UpdateCalls

			_, err := f.c.Pause(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)

			assert.Equal(t, updates, f.definition.UpdateCalls, "no pause stored")
			assert.Zero(t, f.instances.DeleteInRangeCalls, "nothing deleted")
			assert.Empty(t, f.history.Records)
			assert.Len(t, f.instances.All(f.def.ID), 1)
		})
	}
}

func TestPause_AuthorizedActors(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	for name, pick := range map[string]func(*fixture) uuid.UUID{
		"owner":   func(f *fixture) uuid.UUID { return f.owner },
		"manager": func(f *fixture) uuid.UUID { return f.manager },
		"admin":   func(f *fixture) uuid.UUID { return f.admin },
	} {
		name, pick := name, pick
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, now)
			_, err := f.c.Pause(context.Background(), PauseRequest{
				DefinitionID: f.def.ID,
				Start:        now,
				Actor:        pick(f),
			})
			assert.NoError(t, err)
		})
	}
}

func TestPause_DeleteFailureIsPartial(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	f.instances.DeleteInRangeFn = func(context.Context, uuid.UUID, time.Time, *time.Time, bool) (int, error) {
		return 0, errors.New("lock timeout")
	}

	res, err := f.c.Pause(context.Background(), PauseRequest{DefinitionID: f.def.ID, Start: now, Actor: f.owner})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.NotNil(t, f.definition.Get(f.def.ID).Pause)
	assert.Len(t, f.history.Records, 1)
}

func TestResume_BackfillsBoundedPause(t *testing.T) {
	t.Parallel()

	// Paused Tue 2024-01-02 through Thu 2024-01-04, resumed Sat 10:00.
	f := newFixture(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	_, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 1, 2),
		End:          ptr(domain.EndOfDay(date(2024, 1, 4))),
		Actor:        f.owner,
	})
	require.NoError(t, err)

	f.now = time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	res, err := f.c.Resume(context.Background(), ResumeRequest{
		DefinitionID:   f.def.ID,
		BackfillMissed: true,
		Actor:          f.manager,
	})
	require.NoError(t, err)

	require.NotNil(t, res.BackfillWindow)
	require.NotNil(t, res.Backfilled)
	require.NotNil(t, res.Regenerated)
	assert.Equal(t, 2, res.Backfilled.Created, "Fri and Sat morning")
	assert.Equal(t, 1, res.Regenerated.Created, "Sunday")
	assert.Equal(t, []string{"2024-01-05", "2024-01-06", "2024-01-07"}, dueKeys(f.instances.All(f.def.ID)))

	assert.Nil(t, f.definition.Get(f.def.ID).Pause)

	history, err := f.c.GetPauseHistory(context.Background(), f.def.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.PauseActionResume, history[0].Action)
	assert.Equal(t, 3, history[0].InstancesCreated)
	assert.Equal(t, f.manager, history[0].Actor)
}

func TestResume_BackfillKeepsShiftedDatesOutOfPause(t *testing.T) {
	t.Parallel()

	// Paused Thu 2024-01-04 through Mon 2024-01-08. Tue 2024-01-09 is a
	// holiday, so its candidate would move back onto the paused Monday.
	f := newFixture(t, time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC))
	f.calendar.AddBranchHoliday(date(2024, 1, 9))
	def := f.definition.Get(f.def.ID)
	def.HolidayMode = domain.HolidayModePreviousWorkingDay
	require.NoError(t, f.definition.Update(context.Background(), def))

	pauseEnd := domain.EndOfDay(date(2024, 1, 8))
	_, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 1, 4),
		End:          ptr(pauseEnd),
		Actor:        f.owner,
	})
	require.NoError(t, err)

	f.now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	res, err := f.c.Resume(context.Background(), ResumeRequest{
		DefinitionID:   f.def.ID,
		BackfillMissed: true,
		Actor:          f.owner,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Backfilled)
	assert.Equal(t, 1, res.Backfilled.Created, "Wednesday morning only")
	require.Len(t, res.Backfilled.Skipped, 1)
	assert.Equal(t, schedule.SkipPaused, res.Backfilled.Skipped[0].Reason)

	for _, inst := range f.instances.All(f.def.ID) {
		assert.True(t, inst.DueDate.After(pauseEnd), "instance on %s falls inside the pause", domain.DateKey(inst.DueDate))
	}
	assert.Equal(t, []string{"2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"},
		dueKeys(f.instances.All(f.def.ID)))
}

func TestResume_WithoutBackfill(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	_, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 1, 2),
		End:          ptr(domain.EndOfDay(date(2024, 1, 4))),
		Actor:        f.owner,
	})
	require.NoError(t, err)

	f.now = time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	res, err := f.c.Resume(context.Background(), ResumeRequest{DefinitionID: f.def.ID, Actor: f.owner})
	require.NoError(t, err)
	assert.Nil(t, res.BackfillWindow)
	assert.Equal(t, []string{"2024-01-07"}, dueKeys(f.instances.All(f.def.ID)))
}

func TestResume_IndefinitePauseHasNoBackfill(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	_, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 2, 1),
		Actor:        f.owner,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PauseStatePausedIndefinite, f.definition.Get(f.def.ID).PauseState())

	// Saturday 2024-02-10.
	f.now = time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC)
	res, err := f.c.Resume(context.Background(), ResumeRequest{
		DefinitionID:   f.def.ID,
		BackfillMissed: true,
		Actor:          f.owner,
	})
	require.NoError(t, err)

	assert.Nil(t, res.BackfillWindow)
	assert.Nil(t, res.Backfilled)
	for _, inst := range f.instances.All(f.def.ID) {
		assert.False(t, inst.DueDate.Before(f.now), "no instance before resume: %s", inst.DueDate)
	}
	assert.Equal(t, []string{"2024-02-11"}, dueKeys(f.instances.All(f.def.ID)))
}

func TestResume_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))

	_, err := f.c.Resume(context.Background(), ResumeRequest{DefinitionID: f.def.ID, Actor: f.owner})
	assert.ErrorIs(t, err, ErrNotPaused)

	_, err = f.c.Pause(context.Background(), PauseRequest{DefinitionID: f.def.ID, Start: f.now, Actor: f.owner})
	require.NoError(t, err)

	_, err = f.c.Resume(context.Background(), ResumeRequest{DefinitionID: f.def.ID, Actor: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NotNil(t, f.definition.Get(f.def.ID).Pause, "pause untouched")

	_, err = f.c.Resume(context.Background(), ResumeRequest{DefinitionID: uuid.New(), Actor: f.owner})
	assert.True(t, store.IsNotFoundError(err))
}

func TestManualGenerate(t *testing.T) {
	t.Parallel()

	t.Run("superior fills a past gap while paused", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
		_, err := f.c.Pause(context.Background(), PauseRequest{DefinitionID: f.def.ID, Start: f.now, Actor: f.owner})
		require.NoError(t, err)

		res, err := f.c.ManualGenerate(context.Background(), ManualGenerateRequest{
			DefinitionID: f.def.ID,
			Start:        date(2024, 1, 3),
			End:          date(2024, 1, 5),
			Actor:        f.manager,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Created)
		assert.Equal(t, []string{"2024-01-03", "2024-01-04", "2024-01-05"}, dueKeys(f.instances.All(f.def.ID)))
		assert.NotNil(t, f.definition.Get(f.def.ID).Pause, "pause state unchanged")

		require.Len(t, f.history.Records, 2)
		assert.Equal(t, domain.PauseActionManualGenerate, f.history.Records[1].Action)
		assert.Equal(t, 3, f.history.Records[1].InstancesCreated)
	})

	t.Run("owner alone is not enough", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
		_, err := f.c.ManualGenerate(context.Background(), ManualGenerateRequest{
			DefinitionID: f.def.ID,
			Start:        date(2024, 1, 3),
			End:          date(2024, 1, 5),
			Actor:        f.owner,
		})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Empty(t, f.instances.All(f.def.ID))
	})

	t.Run("range checks", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
		_, err := f.c.ManualGenerate(context.Background(), ManualGenerateRequest{
			DefinitionID: f.def.ID,
			Start:        date(2024, 1, 5),
			End:          date(2024, 1, 3),
			Actor:        f.admin,
		})
		assert.ErrorIs(t, err, ErrInvalidRange)

		_, err = f.c.ManualGenerate(context.Background(), ManualGenerateRequest{
			DefinitionID: f.def.ID,
			Start:        date(2024, 1, 1),
			End:          date(2024, 3, 1),
			Actor:        f.admin,
		})
		assert.ErrorIs(t, err, ErrInvalidRange)
		assert.Empty(t, f.history.Records)
	})
}

func TestGetPauseStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))

	status, err := f.c.GetPauseStatus(context.Background(), f.def.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PauseStateActive, status.State)
	assert.False(t, status.CurrentlyPaused)

	_, err = f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        f.now.AddDate(0, 0, 2),
		End:          ptr(f.now.AddDate(0, 0, 4)),
		Actor:        f.owner,
	})
	require.NoError(t, err)

	status, err = f.c.GetPauseStatus(context.Background(), f.def.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PauseStatePausedBounded, status.State)
	assert.False(t, status.CurrentlyPaused, "pause has not started yet")
	require.NotNil(t, status.Pause)

	f.now = f.now.AddDate(0, 0, 3)
	status, err = f.c.GetPauseStatus(context.Background(), f.def.ID)
	require.NoError(t, err)
	assert.True(t, status.CurrentlyPaused)
}

func TestExpirePauses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	_, err := f.c.Pause(context.Background(), PauseRequest{
		DefinitionID: f.def.ID,
		Start:        date(2024, 1, 2),
		End:          ptr(domain.EndOfDay(date(2024, 1, 3))),
		Actor:        f.owner,
	})
	require.NoError(t, err)

	n, err := f.c.ExpirePauses(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "still inside the window")

	f.now = time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	n, err = f.c.ExpirePauses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, f.definition.Get(f.def.ID).Pause)

	last := f.history.Records[len(f.history.Records)-1]
	assert.Equal(t, domain.PauseActionResume, last.Action)
	assert.Equal(t, SystemActor, last.Actor)
	// No backfill for Jan 4 or the morning of Jan 5.
	assert.Equal(t, []string{"2024-01-06", "2024-01-07"}, dueKeys(f.instances.All(f.def.ID)))
}

func TestNewController_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewController(nil, mocks.NewMockInstanceStore(), mocks.NewMockPauseHistoryStore(),
			mocks.NewMockEmployeeDirectory(), &materialize.Materializer{}, Config{}, nil)
	})
}

var _ Generator = (*materialize.Materializer)(nil)

func TestResume_GeneratorFailureStillResumes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	_, err := f.c.Pause(context.Background(), PauseRequest{DefinitionID: f.def.ID, Start: f.now, Actor: f.owner})
	require.NoError(t, err)

	f.c.generator = generatorFunc(func(context.Context, *domain.TaskDefinition, schedule.Window, materialize.Options) (*materialize.Result, error) {
		return nil, errors.New("calendar down")
	})

	res, err := f.c.Resume(context.Background(), ResumeRequest{DefinitionID: f.def.ID, Actor: f.owner})
	require.NoError(t, err)
	assert.Nil(t, res.Regenerated)
	assert.Nil(t, f.definition.Get(f.def.ID).Pause)
}

type generatorFunc func(context.Context, *domain.TaskDefinition, schedule.Window, materialize.Options) (*materialize.Result, error)

func (g generatorFunc) GenerateRange(ctx context.Context, def *domain.TaskDefinition, w schedule.Window, opts materialize.Options) (*materialize.Result, error) {
	return g(ctx, def, w, opts)
}
