package recurrence

import (
	"time"

	"github.com/phrazzld/cadence/internal/domain"
)

// WeekStart returns Monday 00:00 of t's ISO week in t's location.
func WeekStart(t time.Time) time.Time {
	day := domain.StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns Sunday 23:59:59 of t's ISO week in t's location.
func WeekEnd(t time.Time) time.Time {
	return domain.EndOfDay(WeekStart(t).AddDate(0, 0, 6))
}

// NthWeekdayOfMonth returns the nth (1-4) or last (domain.LastOccurrence)
// occurrence of weekday in the month. ok is false when the month has no
// such occurrence.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int, loc *time.Location) (time.Time, bool) {
	if n == domain.LastOccurrence {
		last := time.Date(year, month, domain.DaysIn(year, month), 0, 0, 0, 0, loc)
		back := (int(last.Weekday()) - int(weekday) + 7) % 7
		return last.AddDate(0, 0, -back), true
	}
	if n < 1 {
		return time.Time{}, false
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	forward := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, forward+7*(n-1))
	if day.Month() != month {
		return time.Time{}, false
	}
	return day, true
}
