package domain

import (
	"time"

	"github.com/google/uuid"
)

// PauseState is the state of the pause/resume state machine.
type PauseState string

// Pause/resume states.
const (
	PauseStateActive           PauseState = "active"
	PauseStatePausedBounded    PauseState = "paused_bounded"
	PauseStatePausedIndefinite PauseState = "paused_indefinite"
)

// PauseWindow is the optional pause sub-state of a definition. A nil End
// means the pause is indefinite.
type PauseWindow struct {
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Actor    uuid.UUID  `json:"actor"`
	PausedAt time.Time  `json:"paused_at"`
}

// Validate enforces End strictly after Start.
func (p *PauseWindow) Validate() error {
	if p.End != nil && !p.End.After(p.Start) {
		return ErrInvalidPauseWindow
	}
	return nil
}

// Contains reports whether t is inside [Start, End], or at/after Start for
// indefinite windows.
func (p *PauseWindow) Contains(t time.Time) bool {
	if t.Before(p.Start) {
		return false
	}
	return p.End == nil || !t.After(*p.End)
}

// ActiveAt reports whether the definition is paused at now.
func (p *PauseWindow) ActiveAt(now time.Time) bool {
	return p.Contains(now)
}

// ExpiredAt reports whether a bounded window ended before now.
func (p *PauseWindow) ExpiredAt(now time.Time) bool {
	return p.End != nil && now.After(*p.End)
}

// PauseAction is the kind of controller action recorded in history.
type PauseAction string

// Recorded actions.
const (
	PauseActionPause          PauseAction = "pause"
	PauseActionResume         PauseAction = "resume"
	PauseActionManualGenerate PauseAction = "manual_generate"
)

// PauseHistoryRecord is an append-only audit entry, written once per
// controller action and never mutated.
type PauseHistoryRecord struct {
	ID               uuid.UUID   `json:"id"`
	DefinitionID     uuid.UUID   `json:"definition_id"`
	Action           PauseAction `json:"action"`
	WindowStart      *time.Time  `json:"window_start,omitempty"`
	WindowEnd        *time.Time  `json:"window_end,omitempty"`
	Reason           string      `json:"reason,omitempty"`
	InstancesDeleted int         `json:"instances_deleted"`
	InstancesCreated int         `json:"instances_created"`
	Actor            uuid.UUID   `json:"actor"`
	CreatedAt        time.Time   `json:"created_at"`
}

// NewPauseHistoryRecord stamps a new record with an ID and timestamp.
func NewPauseHistoryRecord(definitionID uuid.UUID, action PauseAction, actor uuid.UUID, at time.Time) *PauseHistoryRecord {
	return &PauseHistoryRecord{
		ID:           uuid.New(),
		DefinitionID: definitionID,
		Action:       action,
		Actor:        actor,
		CreatedAt:    at,
	}
}
