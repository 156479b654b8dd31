// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRule is returned when a recurrence rule is malformed or
	// contains contradictory fields. Rules are rejected at save time and
	// never reach the materializer.
	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrInvalidTimeOfDay is returned when a due time cannot be parsed.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")

	// ErrInvalidHolidayMode is returned for an unknown holiday adjustment mode.
	ErrInvalidHolidayMode = errors.New("invalid holiday adjustment mode")

	// ErrInvalidPauseWindow is returned when a pause window ends before it starts.
	ErrInvalidPauseWindow = errors.New("pause end must be after pause start")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
