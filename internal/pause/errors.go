package pause

import (
	"errors"

	"github.com/phrazzld/cadence/internal/domain"
)

var (
	// ErrNotPaused is returned by Resume when the definition has no pause.
	ErrNotPaused = errors.New("task definition is not paused")

	// ErrAlreadyPaused is returned by Pause when a pause is already set.
	ErrAlreadyPaused = errors.New("task definition is already paused")

	// ErrPauseStartOutOfRange is returned when the pause start is further
	// than the lead window from now.
	ErrPauseStartOutOfRange = errors.New("pause start is outside the allowed range")

	// ErrInvalidPauseWindow is returned when end is not after start.
	ErrInvalidPauseWindow = domain.ErrInvalidPauseWindow

	// ErrInvalidRange is returned by ManualGenerate for an empty or
	// oversized range.
	ErrInvalidRange = errors.New("invalid generation range")
)
