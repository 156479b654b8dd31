package pause

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
)

// PauseRequest asks to pause a definition from Start until End, or
// indefinitely when End is nil.
type PauseRequest struct {
	DefinitionID uuid.UUID
	Start        time.Time
	End          *time.Time
	Reason       string
	Actor        uuid.UUID
}

// PauseResult reports the effect of a pause.
type PauseResult struct {
	Pause            domain.PauseWindow `json:"pause"`
	InstancesDeleted int                `json:"instances_deleted"`
	// Partial is set when the pause was stored but deleting the instances
	// inside it failed. The next regeneration leaves them in place.
	Partial bool `json:"partial"`
}

// ResumeRequest asks to resume a paused definition.
type ResumeRequest struct {
	DefinitionID   uuid.UUID
	BackfillMissed bool
	Actor          uuid.UUID
}

// ResumeResult reports backfill and regeneration separately.
type ResumeResult struct {
	BackfillWindow *schedule.Window     `json:"backfill_window,omitempty"`
	Backfilled     *materialize.Result `json:"backfilled,omitempty"`
	Regenerated    *materialize.Result `json:"regenerated,omitempty"`
}

// Created is the total number of instances created by the resume.
func (r *ResumeResult) Created() int {
	n := 0
	if r.Backfilled != nil {
		n += r.Backfilled.Created
	}
	if r.Regenerated != nil {
		n += r.Regenerated.Created
	}
	return n
}

// ManualGenerateRequest asks to generate instances over [Start, End].
type ManualGenerateRequest struct {
	DefinitionID uuid.UUID
	Start        time.Time
	End          time.Time
	Actor        uuid.UUID
}

// PauseStatus is the read model returned by GetPauseStatus.
type PauseStatus struct {
	DefinitionID    uuid.UUID           `json:"definition_id"`
	State           domain.PauseState   `json:"state"`
	Pause           *domain.PauseWindow `json:"pause,omitempty"`
	CurrentlyPaused bool                `json:"currently_paused"`
	GeneratedUntil  *time.Time          `json:"generated_until,omitempty"`
}
