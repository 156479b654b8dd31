package domain

import (
	"fmt"
	"time"
)

// Frequency is the base cadence of a recurrence rule.
type Frequency string

// Supported frequencies.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyCustom    Frequency = "custom"
)

// CustomUnit is the stepping unit of a custom rule.
type CustomUnit string

// Supported custom units.
const (
	CustomUnitDays  CustomUnit = "days"
	CustomUnitHours CustomUnit = "hours"
)

// LastOccurrence selects the last matching weekday of a month.
const LastOccurrence = -1

// RecurrenceRule is an immutable value describing when a definition recurs.
//
// Monthly rules select either a numeric MonthDay or the NthOccurrence
// (1-4 or LastOccurrence) of each weekday in Weekdays; the two selectors are
// mutually exclusive. CustomUnit and CustomInterval apply to custom rules only.
type RecurrenceRule struct {
	Frequency      Frequency      `json:"frequency"`
	Interval       int            `json:"interval"`
	Weekdays       []time.Weekday `json:"weekdays,omitempty"`
	MonthDay       int            `json:"month_day,omitempty"`
	NthOccurrence  int            `json:"nth_occurrence,omitempty"`
	CustomUnit     CustomUnit     `json:"custom_unit,omitempty"`
	CustomInterval int            `json:"custom_interval,omitempty"`
}

// Validate rejects bad intervals and contradictory field combinations.
func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly, FrequencyCustom:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}

	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidRule, r.Interval)
	}

	if len(r.Weekdays) > 0 && r.Frequency != FrequencyWeekly && r.Frequency != FrequencyMonthly {
		return fmt.Errorf("%w: weekdays are not allowed for %s rules", ErrInvalidRule, r.Frequency)
	}
	seen := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrInvalidRule, wd)
		}
		if seen[wd] {
			return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidRule, wd)
		}
		seen[wd] = true
	}

	if r.Frequency != FrequencyMonthly && (r.MonthDay != 0 || r.NthOccurrence != 0) {
		return fmt.Errorf("%w: month day selectors are only allowed for monthly rules", ErrInvalidRule)
	}
	if r.Frequency == FrequencyMonthly {
		if err := r.validateMonthly(); err != nil {
			return err
		}
	}

	if r.Frequency == FrequencyCustom {
		if r.CustomUnit != CustomUnitDays && r.CustomUnit != CustomUnitHours {
			return fmt.Errorf("%w: unknown custom unit %q", ErrInvalidRule, r.CustomUnit)
		}
		if r.CustomInterval < 1 {
			return fmt.Errorf("%w: custom interval must be at least 1", ErrInvalidRule)
		}
	} else if r.CustomUnit != "" || r.CustomInterval != 0 {
		return fmt.Errorf("%w: custom fields are only allowed for custom rules", ErrInvalidRule)
	}

	return nil
}

func (r RecurrenceRule) validateMonthly() error {
	if r.MonthDay != 0 && r.NthOccurrence != 0 {
		return fmt.Errorf("%w: month day and nth occurrence are mutually exclusive", ErrInvalidRule)
	}
	if r.MonthDay < 0 || r.MonthDay > 31 {
		return fmt.Errorf("%w: month day must be between 1 and 31, got %d", ErrInvalidRule, r.MonthDay)
	}
	if r.NthOccurrence != 0 {
		if r.NthOccurrence != LastOccurrence && (r.NthOccurrence < 1 || r.NthOccurrence > 4) {
			return fmt.Errorf("%w: occurrence must be 1-4 or last, got %d", ErrInvalidRule, r.NthOccurrence)
		}
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: nth occurrence requires at least one weekday", ErrInvalidRule)
		}
	} else if len(r.Weekdays) > 0 {
		return fmt.Errorf("%w: monthly weekdays require an nth occurrence", ErrInvalidRule)
	}
	return nil
}

// Equal reports whether two rules describe the same recurrence.
func (r RecurrenceRule) Equal(other RecurrenceRule) bool {
	if r.Frequency != other.Frequency || r.Interval != other.Interval ||
		r.MonthDay != other.MonthDay || r.NthOccurrence != other.NthOccurrence ||
		r.CustomUnit != other.CustomUnit || r.CustomInterval != other.CustomInterval {
		return false
	}
	if len(r.Weekdays) != len(other.Weekdays) {
		return false
	}
	set := make(map[time.Weekday]bool, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		set[wd] = true
	}
	for _, wd := range other.Weekdays {
		if !set[wd] {
			return false
		}
	}
	return true
}

// Granularity is the slot resolution used to deduplicate instances of this rule.
func (r RecurrenceRule) Granularity() Granularity {
	if r.Frequency == FrequencyCustom && r.CustomUnit == CustomUnitHours {
		return GranularityHour
	}
	return GranularityDay
}
