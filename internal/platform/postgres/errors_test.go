package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/cadence/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "task_definitions",
		ColumnName:     "due_hour",
		ConstraintName: constraint,
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		wantIs error
	}{
		{name: "no rows", err: sql.ErrNoRows, wantIs: store.ErrNotFound},
		{name: "unique violation", err: newPgError(uniqueViolationCode, "task_definitions_pkey"), wantIs: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError(foreignKeyViolationCode, "some_fkey"), wantIs: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError(checkViolationCode, "task_definitions_due_hour_check"), wantIs: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError(notNullViolationCode, ""), wantIs: store.ErrInvalidEntity},
		{
			name:   "slot collision",
			err:    newPgError(uniqueViolationCode, "task_instances_definition_slot_key"),
			wantIs: store.ErrInstanceExists,
		},
		{
			name:   "instance for missing definition",
			err:    newPgError(foreignKeyViolationCode, "task_instances_definition_id_fkey"),
			wantIs: store.ErrDefinitionNotFound,
		},
		{
			name:   "opt-in for unknown employee",
			err:    newPgError(foreignKeyViolationCode, "employee_holidays_employee_id_fkey"),
			wantIs: store.ErrEmployeeNotFound,
		},
		{name: "unmapped error passes through", err: generic, wantIs: generic},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tt.err), tt.wantIs)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrDefinitionNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrDefinitionNotFound), store.ErrDefinitionNotFound)
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(sqlmock.NewErrorResult(errors.New("driver")), nil))
	assert.Error(t, CheckRowsAffected(nil, nil))
}
