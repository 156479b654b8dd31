package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresInstanceStore_BulkCreate(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresInstanceStore(db, nil)
	def := testDefinition(t)
	batch := uuid.New()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	created := domain.NewTaskInstance(def, time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC), batch, now)
	duplicate := domain.NewTaskInstance(def, time.Date(2024, 3, 8, 16, 30, 0, 0, time.UTC), batch, now)
	broken := domain.NewTaskInstance(def, time.Date(2024, 3, 15, 16, 30, 0, 0, time.UTC), batch, now)
	invalid := domain.NewTaskInstance(def, time.Date(2024, 3, 22, 16, 30, 0, 0, time.UTC), batch, now)
	invalid.SlotKey = ""

	prep := mock.ExpectPrepare("INSERT INTO task_instances")
	prep.ExpectExec().WithArgs(anyArgs(8)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(anyArgs(8)...).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(anyArgs(8)...).WillReturnError(newPgError(checkViolationCode, "task_instances_status_check"))

	res, err := s.BulkCreate(context.Background(), []*domain.TaskInstance{created, duplicate, broken, invalid})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, 2, res.Failures[0].Index)
	assert.ErrorIs(t, res.Failures[0].Err, store.ErrInvalidEntity)
	var se *store.StoreError
	require.ErrorAs(t, res.Failures[0].Err, &se)
	assert.Equal(t, "bulk_create", se.Operation)
	assert.Equal(t, 3, res.Failures[1].Index)
	assert.ErrorIs(t, res.Failures[1].Err, domain.ErrInstanceDueDateEmpty)
	assert.True(t, res.Failed())
}

func TestPostgresInstanceStore_BulkCreateEmptyAndPrepareFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresInstanceStore(db, nil)

	res, err := s.BulkCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Created)

	mock.ExpectPrepare("INSERT INTO task_instances").WillReturnError(errors.New("connection reset"))
	inst := domain.NewTaskInstance(testDefinition(t), time.Now(), uuid.New(), time.Now())
	_, err = s.BulkCreate(context.Background(), []*domain.TaskInstance{inst})
	assert.Error(t, err)
}

func TestPostgresInstanceStore_DeleteInRange(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name             string
		end              *time.Time
		excludeCompleted bool
		pattern          string
		args             []driver.Value
	}{
		{
			name:    "open ended",
			pattern: `due_date >= \$2$`,
			args:    []driver.Value{id, start},
		},
		{
			name:             "bounded keeping completed",
			end:              &end,
			excludeCompleted: true,
			pattern:          `due_date >= \$2 AND due_date <= \$3 AND status <> \$4$`,
			args:             []driver.Value{id, start, end, "completed"},
		},
		{
			name:             "open ended keeping completed",
			excludeCompleted: true,
			pattern:          `due_date >= \$2 AND status <> \$3$`,
			args:             []driver.Value{id, start, "completed"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			s := NewPostgresInstanceStore(db, nil)

			mock.ExpectExec(tt.pattern).WithArgs(tt.args...).WillReturnResult(sqlmock.NewResult(0, 3))

			n, err := s.DeleteInRange(context.Background(), id, start, tt.end, tt.excludeCompleted)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestPostgresInstanceStore_QueryDatesAndList(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	s := NewPostgresInstanceStore(db, nil)
	def := testDefinition(t)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 8, 16, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT due_date FROM task_instances").
		WithArgs(def.ID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"due_date"}).AddRow(due))

	dates, err := s.QueryDates(context.Background(), def.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{due}, dates)

	instID, batch := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM task_instances").
		WithArgs(def.ID, start, end).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "definition_id", "assigned_to", "due_date", "slot_key", "status", "batch_id", "created_at",
		}).AddRow(instID.String(), def.ID.String(), def.AssignedTo.String(), due, "2024-03-08", "completed", batch.String(), start))

	instances, err := s.ListByDefinition(context.Background(), def.ID, start, end)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, instID, instances[0].ID)
	assert.Equal(t, domain.InstanceStatusCompleted, instances[0].Status)
	assert.Equal(t, "2024-03-08", instances[0].SlotKey)
	assert.Equal(t, batch, instances[0].BatchID)
}
