package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Entity-specific variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update matched no rows or
	// violated a constraint.
	ErrUpdateFailed = errors.New("update failed")

	// ErrInternal is returned for unexpected storage failures whose details
	// must not reach callers.
	ErrInternal = errors.New("internal store error")

	// Entity-specific "not found" errors

	// ErrDefinitionNotFound indicates that the requested task definition does not exist.
	ErrDefinitionNotFound = fmt.Errorf("%w: task definition", ErrNotFound)

	// ErrInstanceNotFound indicates that the requested task instance does not exist.
	ErrInstanceNotFound = fmt.Errorf("%w: task instance", ErrNotFound)

	// ErrEmployeeNotFound indicates that the employee is unknown to the directory.
	ErrEmployeeNotFound = fmt.Errorf("%w: employee", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrInstanceExists indicates an instance already occupies the
	// (definition, slot) pair. Bulk creation reports it per item.
	ErrInstanceExists = fmt.Errorf("%w: task instance slot", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task_definition", "task_instance")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
