package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/api/shared"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/platform/logger"
)

// getPathUUID parses the named chi URL parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	param := chi.URLParam(r, paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrInvalidID, paramName)
	}
	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", ErrInvalidID, paramName)
	}
	return id, nil
}

// handleActorAndPathUUID extracts the authenticated employee and the named
// path UUID. On failure it writes the error response and returns false.
func handleActorAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	fallback *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	log := logger.FromContextOrDefault(r.Context(), fallback)

	actor, ok := shared.EmployeeID(r.Context())
	if !ok {
		log.Warn("employee ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Employee ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return actor, id, true
}

// decodeAndValidate decodes the JSON body into v and validates it. On
// failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err, "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// parseTime accepts a calendar date in loc or an RFC 3339 timestamp. A date
// resolves to the start of the day, or to its end when endOfDay is set.
func parseTime(field, value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if len(value) == len(domain.DateLayout) {
		d, err := time.ParseInLocation(domain.DateLayout, value, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", ErrInvalidRequest, field)
		}
		if endOfDay {
			return domain.EndOfDay(d), nil
		}
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", ErrInvalidRequest, field)
	}
	return t.In(loc), nil
}

// parseOptionalTime is parseTime for fields that may be empty.
func parseOptionalTime(field, value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTime(field, value, loc, endOfDay)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
