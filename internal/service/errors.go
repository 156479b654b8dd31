package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/cadence/internal/store"
)

var (
	// ErrDefinitionNotFound is returned when the definition does not exist.
	ErrDefinitionNotFound = errors.New("task definition not found")

	// ErrDefinitionSuperseded is returned when editing a definition that has
	// already been replaced.
	ErrDefinitionSuperseded = errors.New("task definition has been superseded")

	// ErrInvalidRange is returned for an instance listing whose end is
	// before its start.
	ErrInvalidRange = errors.New("invalid date range")
)

// ServiceError adds the failing service and operation to an error.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Store not-found errors become
// ErrDefinitionNotFound so callers need not know the store's sentinels.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrDefinitionNotFound) || errors.Is(err, ErrDefinitionNotFound) {
		return ErrDefinitionNotFound
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
