package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls int
	err   error
}

func (f *fakeExpirer) ExpirePauses(context.Context) (int, error) {
	f.calls++
	return 0, f.err
}

type fakeSweeper struct {
	order    *[]string
	triggers []schedule.Trigger
	err      error
}

func (f *fakeSweeper) Sweep(_ context.Context, trigger schedule.Trigger) (*materialize.SweepResult, error) {
	f.triggers = append(f.triggers, trigger)
	if f.order != nil {
		*f.order = append(*f.order, "sweep")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &materialize.SweepResult{Trigger: trigger, Definitions: 2, Succeeded: 2}, nil
}

type orderedExpirer struct {
	order *[]string
}

func (o orderedExpirer) ExpirePauses(context.Context) (int, error) {
	*o.order = append(*o.order, "expire")
	return 1, nil
}

func TestSweepJob_ExpiresThenSweeps(t *testing.T) {
	t.Parallel()

	var order []string
	sweeper := &fakeSweeper{order: &order}
	job := NewSweepJob(orderedExpirer{&order}, sweeper, nil)

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"expire", "sweep"}, order)
	assert.Equal(t, []schedule.Trigger{schedule.TriggerScheduled}, sweeper.triggers)
	assert.Equal(t, 2, res.Succeeded)
}

func TestSweepJob_ExpiryFailureDoesNotStopSweep(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)
	expirer := &fakeExpirer{err: errors.New("db down")}
	sweeper := &fakeSweeper{}
	job := NewSweepJob(expirer, sweeper, log)

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, sweeper.triggers, 1)
	assert.Len(t, buf.EntriesWithMessage(t, "failed to expire pauses"), 1)

	sweeper.err = errors.New("list failed")
	_, err = job.Run(context.Background())
	assert.ErrorContains(t, err, "sweep failed")
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	t.Parallel()

	job := NewSweepJob(&fakeExpirer{}, &fakeSweeper{}, nil)
	_, err := NewScheduler("every sunday", time.UTC, job, nil)
	assert.ErrorContains(t, err, "invalid cron spec")
}

type signalExpirer chan struct{}

func (s signalExpirer) ExpirePauses(context.Context) (int, error) {
	select {
	case s <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestScheduler_Fires(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)
	fired := make(signalExpirer, 1)
	job := NewSweepJob(fired, &fakeSweeper{}, log)

	s, err := NewScheduler("* * * * * *", time.UTC, job, log)
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not fire")
	}
}
