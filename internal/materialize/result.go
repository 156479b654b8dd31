package materialize

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/redact"
	"github.com/phrazzld/cadence/internal/store"
)

// Skip records a candidate that was not materialized.
type Skip struct {
	Candidate time.Time           `json:"candidate"`
	Date      time.Time           `json:"date"`
	Reason    schedule.SkipReason `json:"reason"`
}

// Result summarizes one generation run for one definition.
type Result struct {
	DefinitionID uuid.UUID       `json:"definition_id"`
	BatchID      uuid.UUID       `json:"batch_id"`
	Window       schedule.Window `json:"window"`
	Candidates   int             `json:"candidates"`
	Created      int             `json:"created"`
	Duplicates   int             `json:"duplicates"`
	Skipped      []Skip          `json:"skipped,omitempty"`
	Failures     []ItemError     `json:"failures,omitempty"`
}

// ItemError is a serializable per-item bulk failure.
type ItemError struct {
	DueDate time.Time `json:"due_date"`
	Error   string    `json:"error"`
}

func (r *Result) addBulk(b store.BulkResult) {
	r.Created += b.Created
	r.Duplicates += b.Duplicates
	for _, f := range b.Failures {
		ie := ItemError{Error: redact.Error(f.Err)}
		if f.Instance != nil {
			ie.DueDate = f.Instance.DueDate
		}
		r.Failures = append(r.Failures, ie)
	}
}

// SkipCount returns how many candidates were skipped for reason.
func (r *Result) SkipCount(reason schedule.SkipReason) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}
