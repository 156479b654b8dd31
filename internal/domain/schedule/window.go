package schedule

import (
	"fmt"
	"time"

	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/recurrence"
)

// Trigger says what started a generation run.
type Trigger string

// Triggers.
const (
	// TriggerScheduled is the unattended periodic run; it prepares next week.
	TriggerScheduled Trigger = "scheduled"
	// TriggerManual is a human action; it covers the current week.
	TriggerManual Trigger = "manual"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	return t == TriggerScheduled || t == TriggerManual
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Extend widens the window by days on both sides.
func (w Window) Extend(days int) Window {
	return Window{Start: w.Start.AddDate(0, 0, -days), End: w.End.AddDate(0, 0, days)}
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// ComputeWindow returns the week-aligned generation window for trigger,
// Monday 00:00 through Sunday 23:59:59 in now's location.
//
// Manual runs cover the week containing now. Scheduled runs cover the week
// that starts on the next Monday after today, which is the following week
// whichever day of the current week the run fires on.
func ComputeWindow(now time.Time, trigger Trigger) Window {
	start := recurrence.WeekStart(now)
	if trigger != TriggerManual {
		start = start.AddDate(0, 0, 7)
	}
	return Window{Start: start, End: domain.EndOfDay(start.AddDate(0, 0, 6))}
}
