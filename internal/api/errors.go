package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/cadence/internal/api/shared"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/pause"
	"github.com/phrazzld/cadence/internal/service"
	"github.com/phrazzld/cadence/internal/service/auth"
	"github.com/phrazzld/cadence/internal/store"
)

// ErrInvalidID is returned for a path parameter that is not a UUID.
var ErrInvalidID = errors.New("invalid identifier")

// ErrInvalidRequest is returned for a request body or query that cannot be
// decoded.
var ErrInvalidRequest = errors.New("invalid request")

// MapErrorToStatusCode maps internal errors to HTTP status codes so internal
// error types never reach clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, service.ErrDefinitionNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDefinitionSuperseded),
		errors.Is(err, materialize.ErrDefinitionInactive),
		errors.Is(err, pause.ErrAlreadyPaused),
		errors.Is(err, pause.ErrNotPaused),
		store.IsDuplicateError(err):
		return http.StatusConflict

	case isValidationError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	for _, target := range []error{
		ErrInvalidID,
		ErrInvalidRequest,
		shared.ErrEmptyBody,
		domain.ErrValidation,
		domain.ErrInvalidRule,
		domain.ErrInvalidTimeOfDay,
		domain.ErrInvalidHolidayMode,
		domain.ErrInvalidPauseWindow,
		domain.ErrDefinitionNameEmpty,
		domain.ErrDefinitionAssigneeEmpty,
		domain.ErrDefinitionOwnerEmpty,
		domain.ErrDefinitionSeriesBounds,
		pause.ErrPauseStartOutOfRange,
		pause.ErrInvalidRange,
		service.ErrInvalidRange,
		store.ErrInvalidEntity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// messages built from domain sentinels are passed through since they carry
// no internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "You are not allowed to perform this action"

	case errors.Is(err, service.ErrDefinitionNotFound),
		errors.Is(err, store.ErrDefinitionNotFound):
		return "Task definition not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, service.ErrDefinitionSuperseded),
		errors.Is(err, materialize.ErrDefinitionInactive):
		return "Task definition has been superseded"
	case errors.Is(err, pause.ErrAlreadyPaused):
		return "Task definition is already paused"
	case errors.Is(err, pause.ErrNotPaused):
		return "Task definition is not paused"
	case store.IsDuplicateError(err):
		return "Resource already exists"

	case errors.Is(err, ErrInvalidID):
		return "Invalid identifier"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(err)
	}
	if isValidationError(err) {
		var se *service.ServiceError
		if errors.As(err, &se) && se.Err != nil {
			return se.Err.Error()
		}
		return err.Error()
	}
	return "An unexpected error occurred"
}

// SanitizeValidationError turns validator output into a short message that
// names the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	field := fe.Field()
	if msg := getValidationTagMessage(fe.Tag()); msg != "" {
		return fmt.Sprintf("Invalid %s: %s", field, msg)
	}
	return fmt.Sprintf("Invalid %s", field)
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "must be a UUID"
	case "datetime":
		return "invalid date"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs err,
// redacted. fallback replaces the generic message on 500s when set.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
