package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date layout used for keys and wire formats.
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last second of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// DateKey formats the calendar day of t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Granularity is the resolution at which two due instants count as the same slot.
type Granularity int

// Slot granularities.
const (
	GranularityDay Granularity = iota
	GranularityHour
)

// Key formats t at the granularity.
func (g Granularity) Key(t time.Time) string {
	if g == GranularityHour {
		return t.Format("2006-01-02T15")
	}
	return DateKey(t)
}

// DateSet is a set of slots (calendar days, or hours for hourly rules)
// evaluated in a fixed location.
type DateSet struct {
	granularity Granularity
	loc         *time.Location
	keys        map[string]struct{}
}

// NewDateSet builds a set from the given times. A nil location means UTC.
func NewDateSet(g Granularity, loc *time.Location, dates ...time.Time) *DateSet {
	if loc == nil {
		loc = time.UTC
	}
	s := &DateSet{granularity: g, loc: loc, keys: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts the slot of t.
func (s *DateSet) Add(t time.Time) {
	s.keys[s.key(t)] = struct{}{}
}

// Has reports whether the slot of t is in the set.
func (s *DateSet) Has(t time.Time) bool {
	_, ok := s.keys[s.key(t)]
	return ok
}

// Len returns the number of slots in the set.
func (s *DateSet) Len() int {
	return len(s.keys)
}

func (s *DateSet) key(t time.Time) string {
	return s.granularity.Key(t.In(s.loc))
}

// TimeOfDay is a wall-clock due time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Validate checks the hour and minute ranges.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, t.Hour, t.Minute)
	}
	return nil
}

// On returns the instant on day's calendar date at this time of day.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
