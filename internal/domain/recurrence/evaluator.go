package recurrence

import (
	"sort"
	"time"

	"github.com/phrazzld/cadence/internal/domain"
)

// Request describes one evaluation.
type Request struct {
	// Rule is the recurrence rule to expand.
	Rule domain.RecurrenceRule

	// Anchor is the first day of the series. It phases intervals and supplies
	// the default weekday, month day and month for rules that omit them.
	Anchor time.Time

	// Start and End bound the window, inclusive. Candidates are produced in
	// Start's location.
	Start time.Time
	End   time.Time

	// DueTime is the wall-clock time applied to each candidate day.
	DueTime domain.TimeOfDay
}

// Candidates returns the ordered due instants of req.Rule inside
// [req.Start, req.End]. It returns domain.ErrInvalidRule for rules that fail
// validation.
func Candidates(req Request) ([]time.Time, error) {
	if err := req.Rule.Validate(); err != nil {
		return nil, err
	}
	if err := req.DueTime.Validate(); err != nil {
		return nil, err
	}
	if req.End.Before(req.Start) {
		return nil, nil
	}

	loc := req.Start.Location()
	anchor := domain.StartOfDay(req.Anchor.In(loc))
	if req.Anchor.IsZero() {
		anchor = domain.StartOfDay(req.Start)
	}
	end := req.End.In(loc)

	var days []time.Time
	switch req.Rule.Frequency {
	case domain.FrequencyDaily:
		days = dailyDays(req.Rule, anchor, req.Start, end)
	case domain.FrequencyWeekly:
		days = weeklyDays(req.Rule, anchor, req.Start, end)
	case domain.FrequencyMonthly:
		days = monthlyDays(req.Rule, anchor, req.Start, end)
	case domain.FrequencyQuarterly:
		days = periodicDays(3*req.Rule.Interval, anchor, req.Start, end)
	case domain.FrequencyYearly:
		days = periodicDays(12*req.Rule.Interval, anchor, req.Start, end)
	case domain.FrequencyCustom:
		return customInstants(req.Rule, anchor, req.Start, end, req.DueTime), nil
	}

	out := make([]time.Time, 0, len(days))
	for _, day := range days {
		due := req.DueTime.On(day)
		if due.Before(req.Start) || due.After(end) {
			continue
		}
		out = append(out, due)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// eachDay calls fn for every calendar day touched by [start, end].
func eachDay(start, end time.Time, fn func(day time.Time)) {
	last := domain.StartOfDay(end)
	for day := domain.StartOfDay(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

func dailyDays(rule domain.RecurrenceRule, anchor, start, end time.Time) []time.Time {
	var days []time.Time
	eachDay(start, end, func(day time.Time) {
		if mod(daysBetween(anchor, day), rule.Interval) == 0 {
			days = append(days, day)
		}
	})
	return days
}

func weeklyDays(rule domain.RecurrenceRule, anchor, start, end time.Time) []time.Time {
	weekdays := make(map[time.Weekday]bool, len(rule.Weekdays))
	for _, wd := range rule.Weekdays {
		weekdays[wd] = true
	}
	if len(weekdays) == 0 {
		weekdays[anchor.Weekday()] = true
	}

	anchorWeek := WeekStart(anchor)
	var days []time.Time
	eachDay(start, end, func(day time.Time) {
		if !weekdays[day.Weekday()] {
			return
		}
		if mod(daysBetween(anchorWeek, WeekStart(day))/7, rule.Interval) == 0 {
			days = append(days, day)
		}
	})
	return days
}

func monthlyDays(rule domain.RecurrenceRule, anchor, start, end time.Time) []time.Time {
	var days []time.Time
	eachMonth(start, end, func(year int, month time.Month) {
		if mod(monthsBetween(anchor, year, month), rule.Interval) != 0 {
			return
		}
		if rule.NthOccurrence != 0 {
			for _, wd := range rule.Weekdays {
				if day, ok := NthWeekdayOfMonth(year, month, wd, rule.NthOccurrence, anchor.Location()); ok {
					days = append(days, day)
				}
			}
			return
		}

		dom := rule.MonthDay
		if dom == 0 {
			dom = anchor.Day()
		}
		if last := domain.DaysIn(year, month); dom > last {
			dom = last
		}
		days = append(days, time.Date(year, month, dom, 0, 0, 0, 0, anchor.Location()))
	})
	return days
}

// periodicDays repeats the anchor's day of month every step months. Months
// without that day (Feb 29 outside leap years, the 31st in 30-day months)
// are skipped rather than rolled forward.
func periodicDays(step int, anchor, start, end time.Time) []time.Time {
	var days []time.Time
	eachMonth(start, end, func(year int, month time.Month) {
		if mod(monthsBetween(anchor, year, month), step) != 0 {
			return
		}
		if anchor.Day() > domain.DaysIn(year, month) {
			return
		}
		days = append(days, time.Date(year, month, anchor.Day(), 0, 0, 0, 0, anchor.Location()))
	})
	return days
}

// customInstants returns anchorDue + k*interval for k >= 0. The phase is
// always taken from the anchor so overlapping windows agree on every slot.
func customInstants(rule domain.RecurrenceRule, anchor, start, end time.Time, due domain.TimeOfDay) []time.Time {
	origin := due.On(anchor)

	if rule.CustomUnit == domain.CustomUnitHours {
		step := time.Duration(rule.CustomInterval) * time.Hour
		first := origin
		if start.After(origin) {
			k := (start.Sub(origin) + step - 1) / step
			first = origin.Add(k * step)
		}
		var out []time.Time
		for t := first; !t.After(end); t = t.Add(step) {
			out = append(out, t)
		}
		return out
	}

	var out []time.Time
	eachDay(start, end, func(day time.Time) {
		if day.Before(anchor) || mod(daysBetween(anchor, day), rule.CustomInterval) != 0 {
			return
		}
		if t := due.On(day); !t.Before(start) && !t.After(end) {
			out = append(out, t)
		}
	})
	return out
}

func eachMonth(start, end time.Time, fn func(year int, month time.Month)) {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, start.Location())
	for ; !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		fn(cur.Year(), cur.Month())
	}
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func monthsBetween(anchor time.Time, year int, month time.Month) int {
	return (year-anchor.Year())*12 + int(month) - int(anchor.Month())
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
