package schedule

import "time"

// SkipReason explains why a candidate was not materialized. The zero value
// means the candidate was accepted.
type SkipReason string

// Skip reasons.
const (
	SkipNone               SkipReason = ""
	SkipPastDue            SkipReason = "past_due"
	SkipPaused             SkipReason = "paused"
	SkipHolidayExhausted   SkipReason = "holiday_exhausted"
	SkipDuplicateCollision SkipReason = "duplicate_collision"
	SkipOutsideSeries      SkipReason = "outside_series"
)

// Outcome is the result of evaluating one candidate.
type Outcome struct {
	Candidate time.Time
	Date      time.Time
	Skip      SkipReason
}

// Accepted reports whether the candidate should be materialized at Date.
func (o Outcome) Accepted() bool {
	return o.Skip == SkipNone
}

// Shifted reports whether holiday adjustment moved the candidate.
func (o Outcome) Shifted() bool {
	return o.Accepted() && !o.Date.Equal(o.Candidate)
}
