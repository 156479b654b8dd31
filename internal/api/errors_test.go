package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/cadence/internal/api/shared"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/pause"
	"github.com/phrazzld/cadence/internal/service"
	"github.com/phrazzld/cadence/internal/service/auth"
	"github.com/phrazzld/cadence/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", fmt.Errorf("validate: %w", auth.ErrExpiredToken), http.StatusUnauthorized},
		{"unauthorized actor", fmt.Errorf("%w: not the owner", domain.ErrUnauthorized), http.StatusForbidden},
		{"service not found", service.ErrDefinitionNotFound, http.StatusNotFound},
		{"store not found", fmt.Errorf("failed to load definition: %w", store.ErrDefinitionNotFound), http.StatusNotFound},
		{"superseded", service.ErrDefinitionSuperseded, http.StatusConflict},
		{"inactive", materialize.ErrDefinitionInactive, http.StatusConflict},
		{"already paused", pause.ErrAlreadyPaused, http.StatusConflict},
		{"not paused", pause.ErrNotPaused, http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid rule", service.NewServiceError("definition", "create", domain.ErrInvalidRule), http.StatusBadRequest},
		{"pause window", pause.ErrInvalidPauseWindow, http.StatusBadRequest},
		{"pause start", pause.ErrPauseStartOutOfRange, http.StatusBadRequest},
		{"manual range", pause.ErrInvalidRange, http.StatusBadRequest},
		{"listing range", service.ErrInvalidRange, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"empty body", shared.ErrEmptyBody, http.StatusBadRequest},
		{"series bounds", domain.ErrDefinitionSeriesBounds, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"expired", auth.ErrExpiredToken, "Token expired"},
		{"forbidden", domain.ErrUnauthorized, "You are not allowed to perform this action"},
		{"not found", store.ErrDefinitionNotFound, "Task definition not found"},
		{"not paused", pause.ErrNotPaused, "Task definition is not paused"},
		{
			"service wrapped validation drops the prefix",
			service.NewServiceError("definition", "create", fmt.Errorf("%w: interval must be at least 1, got 0", domain.ErrInvalidRule)),
			"invalid recurrence rule: interval must be at least 1, got 0",
		},
		{
			"invalid entity hides constraint detail",
			fmt.Errorf("%w: check constraint violation (task_definitions_due_hour_check): ERROR", store.ErrInvalidEntity),
			"Invalid entity data",
		},
		{"internal", errors.New("dial tcp 10.0.0.5:5432: connection refused"), "An unexpected error occurred"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.Validate.Struct(GenerateRequest{Start: "2024-01-01"})
	assert.Equal(t, "Invalid end: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
