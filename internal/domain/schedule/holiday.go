package schedule

import (
	"time"

	"github.com/phrazzld/cadence/internal/domain"
)

// DefaultHolidaySearchDays bounds the walk to a working day.
const DefaultHolidaySearchDays = 30

// HolidayPolicy adjusts candidates that fall on non-working days.
type HolidayPolicy struct {
	// SearchDays is how many days Adjust walks before giving up.
	SearchDays int
}

// NewHolidayPolicy returns a policy with the given search bound. Values
// below 1 use DefaultHolidaySearchDays.
func NewHolidayPolicy(searchDays int) HolidayPolicy {
	if searchDays < 1 {
		searchDays = DefaultHolidaySearchDays
	}
	return HolidayPolicy{SearchDays: searchDays}
}

// Adjust applies mode to candidate.
//
// Ignore keeps the candidate even on a holiday. PreviousWorkingDay and
// NextWorkingDay walk one day at a time past further holidays, up to
// SearchDays, and report SkipHolidayExhausted when no working day is found.
// The final date is checked against existing: a collision skips the
// candidate outright instead of trying the day beyond it.
func (p HolidayPolicy) Adjust(
	candidate time.Time,
	mode domain.HolidayMode,
	holidays *domain.DateSet,
	existing *domain.DateSet,
) Outcome {
	out := Outcome{Candidate: candidate, Date: candidate}

	if mode != domain.HolidayModeIgnore && holidays != nil && holidays.Has(candidate) {
		step := 1
		if mode == domain.HolidayModePreviousWorkingDay {
			step = -1
		}

		found := false
		for i := 1; i <= p.SearchDays; i++ {
			next := candidate.AddDate(0, 0, step*i)
			if !holidays.Has(next) {
				out.Date = next
				found = true
				break
			}
		}
		if !found {
			out.Skip = SkipHolidayExhausted
			return out
		}
	}

	if existing != nil && existing.Has(out.Date) {
		out.Skip = SkipDuplicateCollision
	}
	return out
}
