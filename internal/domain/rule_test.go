package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecurrenceRule_Validate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		rule    RecurrenceRule
		wantErr bool
	}{
		{"daily", RecurrenceRule{Frequency: FrequencyDaily, Interval: 1}, false},
		{"unknown frequency", RecurrenceRule{Frequency: "fortnightly", Interval: 1}, true},
		{"zero interval", RecurrenceRule{Frequency: FrequencyDaily}, true},
		{"weekly with weekdays", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday}}, false},
		{"weekly duplicate weekday", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Monday}}, true},
		{"weekly invalid weekday", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{9}}, true},
		{"daily with weekdays", RecurrenceRule{Frequency: FrequencyDaily, Interval: 1, Weekdays: []time.Weekday{time.Monday}}, true},
		{"monthly day", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, MonthDay: 31}, false},
		{"monthly day out of range", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, MonthDay: 32}, true},
		{"monthly last friday", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, NthOccurrence: LastOccurrence, Weekdays: []time.Weekday{time.Friday}}, false},
		{"monthly both selectors", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, MonthDay: 3, NthOccurrence: 1, Weekdays: []time.Weekday{time.Friday}}, true},
		{"monthly fifth occurrence", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, NthOccurrence: 5, Weekdays: []time.Weekday{time.Friday}}, true},
		{"monthly nth without weekday", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, NthOccurrence: 2}, true},
		{"monthly weekday without nth", RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, Weekdays: []time.Weekday{time.Friday}}, true},
		{"month day on yearly", RecurrenceRule{Frequency: FrequencyYearly, Interval: 1, MonthDay: 4}, true},
		{"custom hours", RecurrenceRule{Frequency: FrequencyCustom, Interval: 1, CustomUnit: CustomUnitHours, CustomInterval: 4}, false},
		{"custom missing unit", RecurrenceRule{Frequency: FrequencyCustom, Interval: 1, CustomInterval: 4}, true},
		{"custom zero interval", RecurrenceRule{Frequency: FrequencyCustom, Interval: 1, CustomUnit: CustomUnitDays}, true},
		{"custom fields on weekly", RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, CustomUnit: CustomUnitDays, CustomInterval: 2}, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.rule.Validate()
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRule), "expected ErrInvalidRule, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecurrenceRule_Equal(t *testing.T) {
	t.Parallel()

	a := RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Friday}}
	b := RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Weekdays: []time.Weekday{time.Friday, time.Monday}}
	c := RecurrenceRule{Frequency: FrequencyWeekly, Interval: 2, Weekdays: []time.Weekday{time.Friday, time.Monday}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1}))
}

func TestRecurrenceRule_Granularity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GranularityDay, RecurrenceRule{Frequency: FrequencyDaily}.Granularity())
	assert.Equal(t, GranularityDay, RecurrenceRule{Frequency: FrequencyCustom, CustomUnit: CustomUnitDays}.Granularity())
	assert.Equal(t, GranularityHour, RecurrenceRule{Frequency: FrequencyCustom, CustomUnit: CustomUnitHours}.Granularity())
}
