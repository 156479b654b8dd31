package materialize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_OneBadDefinitionDoesNotFailTheRun(t *testing.T) {
	t.Parallel()

	good1 := newDefinition(t, daily, domain.HolidayModeIgnore)
	good2 := newDefinition(t, daily, domain.HolidayModeIgnore)
	bad := newDefinition(t, daily, domain.HolidayModeIgnore)
	retired := newDefinition(t, daily, domain.HolidayModeIgnore)
	retired.Status = domain.DefinitionStatusSuperseded

	f := newFixture(t, time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC), good1, good2, bad, retired)
	f.calendar.GetHolidaysFn = func(_ context.Context, employeeID uuid.UUID, _, _ time.Time) ([]domain.HolidayDate, error) {
		if employeeID == bad.AssignedTo {
			return nil, errors.New("calendar unavailable")
		}
		return nil, nil
	}

	res, err := f.m.Sweep(context.Background(), schedule.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Definitions)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 14, res.Created)
	assert.False(t, res.Aborted)
	assert.Empty(t, f.instances.All(bad.ID))
	assert.Empty(t, f.instances.All(retired.ID))
}

func TestSweep_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	def := newDefinition(t, daily, domain.HolidayModeIgnore)
	f := newFixture(t, time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC), def)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.m.Sweep(ctx, schedule.TriggerScheduled)
	require.NoError(t, err)
	assert.True(t, res.Aborted)
	assert.Equal(t, 0, res.Succeeded)
	assert.Empty(t, f.instances.All(def.ID))
}

func TestSweep_ListFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	f.defs.ListActiveFn = func(context.Context) ([]*domain.TaskDefinition, error) {
		return nil, errors.New("db down")
	}
	_, err := f.m.Sweep(context.Background(), schedule.TriggerScheduled)
	assert.Error(t, err)
}
