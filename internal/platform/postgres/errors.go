package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/cadence/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Constraints whose violation has a more specific store error than the
// generic code mapping.
var constraintErrors = map[string]error{
	"task_instances_definition_slot_key":  store.ErrInstanceExists,
	"task_instances_definition_id_fkey":   store.ErrDefinitionNotFound,
	"pause_history_definition_id_fkey":    store.ErrDefinitionNotFound,
	"task_definitions_superseded_by_fkey": store.ErrDefinitionNotFound,
	"task_definitions_supersedes_fkey":    store.ErrDefinitionNotFound,
	"employee_holidays_employee_id_fkey":  store.ErrEmployeeNotFound,
	"employees_manager_id_fkey":           store.ErrEmployeeNotFound,
}

// MapError maps a database error to a store error, wrapping the original.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if specific, ok := constraintErrors[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w (%s): %v", specific, pgErr.ConstraintName, err)
		}
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ColumnName, err)
		}
	}

	return err
}

// CheckRowsAffected returns notFound when result touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
