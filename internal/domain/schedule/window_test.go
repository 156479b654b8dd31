package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputeWindow(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		now       time.Time
		trigger   Trigger
		wantStart string
		wantEnd   string
	}{
		{"manual midweek", at(2024, 1, 3), TriggerManual, "2024-01-01", "2024-01-07"},
		{"manual sunday", at(2024, 1, 7), TriggerManual, "2024-01-01", "2024-01-07"},
		{"scheduled midweek", at(2024, 1, 3), TriggerScheduled, "2024-01-08", "2024-01-14"},
		{"scheduled sunday", at(2024, 1, 7), TriggerScheduled, "2024-01-08", "2024-01-14"},
		{"scheduled monday", at(2024, 1, 8), TriggerScheduled, "2024-01-15", "2024-01-21"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := ComputeWindow(tc.now, tc.trigger)
			assert.Equal(t, tc.wantStart, domain.DateKey(w.Start))
			assert.Equal(t, tc.wantEnd, domain.DateKey(w.End))
			assert.Equal(t, time.Monday, w.Start.Weekday())
			assert.Equal(t, 0, w.Start.Hour())
			assert.Equal(t, 23, w.End.Hour())
			assert.Equal(t, 59, w.End.Second())
		})
	}
}

func TestWindow_ExtendAndContains(t *testing.T) {
	t.Parallel()

	w := ComputeWindow(at(2024, 1, 3), TriggerManual)
	assert.True(t, w.Contains(at(2024, 1, 7)))
	assert.False(t, w.Contains(at(2024, 1, 8)))

	wide := w.Extend(30)
	assert.Equal(t, "2023-12-02", domain.DateKey(wide.Start))
	assert.Equal(t, "2024-02-06", domain.DateKey(wide.End))
}

func TestShouldGenerate(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 5, 23, 59, 59, 0, time.UTC)

	def := &domain.TaskDefinition{ID: uuid.New()}
	assert.True(t, ShouldGenerate(def, at(2024, 2, 2)), "not paused")

	def.Pause = &domain.PauseWindow{Start: start}
	assert.True(t, ShouldGenerate(def, at(2024, 1, 31)), "before indefinite pause")
	assert.False(t, ShouldGenerate(def, at(2024, 2, 1)))
	assert.False(t, ShouldGenerate(def, at(2025, 1, 1)))

	def.Pause = &domain.PauseWindow{Start: start, End: &end}
	assert.True(t, ShouldGenerate(def, at(2024, 1, 31)))
	assert.False(t, ShouldGenerate(def, at(2024, 2, 1)))
	assert.False(t, ShouldGenerate(def, at(2024, 2, 5)))
	assert.True(t, ShouldGenerate(def, at(2024, 2, 6)))
}
