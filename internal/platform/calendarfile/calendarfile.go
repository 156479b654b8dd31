// Package calendarfile provides a CalendarOracle backed by a YAML file, for
// deployments that keep their holiday calendar outside the database.
//
// The file lists each employee's branch, the holidays of each branch and
// holidays attached to individual employees:
//
//	employees:
//	  - id: 5f0c...
//	    branch: north
//	branches:
//	  north:
//	    - date: 2024-07-04
//	      name: Independence Day
//	    - date: 2024-12-24
//	      optional: true
//	employee_holidays:
//	  5f0c...:
//	    - date: 2024-12-24
//	      optional: true
package calendarfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/store"
	"gopkg.in/yaml.v3"
)

type fileHoliday struct {
	Date     string `yaml:"date"`
	Name     string `yaml:"name"`
	Optional bool   `yaml:"optional"`
}

type fileEmployee struct {
	ID     string `yaml:"id"`
	Branch string `yaml:"branch"`
}

type fileCalendar struct {
	Employees        []fileEmployee           `yaml:"employees"`
	Branches         map[string][]fileHoliday `yaml:"branches"`
	EmployeeHolidays map[string][]fileHoliday `yaml:"employee_holidays"`
}

type entry struct {
	date     time.Time
	optional bool
}

// Oracle serves holidays from a parsed calendar file. It is immutable after
// loading and safe for concurrent use.
type Oracle struct {
	branchOf  map[uuid.UUID]string
	branches  map[string][]entry
	employees map[uuid.UUID][]entry
	loc       *time.Location
}

var _ store.CalendarOracle = (*Oracle)(nil)

// Load reads and parses the calendar at path. Dates are calendar days in loc.
func Load(path string, loc *time.Location, logger *slog.Logger) (*Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar %s: %w", path, err)
	}
	o, err := Parse(data, loc)
	if err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", path, err)
	}
	if logger != nil {
		logger.Info("holiday calendar loaded",
			slog.String("component", "calendar_file"),
			slog.Int("employees", len(o.branchOf)),
			slog.Int("branches", len(o.branches)))
	}
	return o, nil
}

// Parse builds an Oracle from YAML data.
func Parse(data []byte, loc *time.Location) (*Oracle, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f fileCalendar
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	o := &Oracle{
		branchOf:  make(map[uuid.UUID]string, len(f.Employees)),
		branches:  make(map[string][]entry, len(f.Branches)),
		employees: make(map[uuid.UUID][]entry, len(f.EmployeeHolidays)),
		loc:       loc,
	}
	for _, e := range f.Employees {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid employee id %q: %w", e.ID, err)
		}
		o.branchOf[id] = e.Branch
	}
	for branch, holidays := range f.Branches {
		entries, err := parseEntries(holidays, loc)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", branch, err)
		}
		o.branches[branch] = entries
	}
	for raw, holidays := range f.EmployeeHolidays {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid employee id %q: %w", raw, err)
		}
		entries, err := parseEntries(holidays, loc)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		o.employees[id] = entries
	}
	return o, nil
}

func parseEntries(holidays []fileHoliday, loc *time.Location) ([]entry, error) {
	out := make([]entry, 0, len(holidays))
	for _, h := range holidays {
		d, err := time.ParseInLocation(domain.DateLayout, h.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", h.Date, err)
		}
		out = append(out, entry{date: d, optional: h.Optional})
	}
	return out, nil
}

// GetHolidays implements store.CalendarOracle.
func (o *Oracle) GetHolidays(_ context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.HolidayDate, error) {
	from := domain.StartOfDay(start.In(o.loc))
	to := domain.EndOfDay(end.In(o.loc))

	var out []domain.HolidayDate
	collect := func(entries []entry, source domain.HolidaySource) {
		for _, e := range entries {
			if e.date.Before(from) || e.date.After(to) {
				continue
			}
			out = append(out, domain.HolidayDate{Date: e.date, Source: source, IsOptional: e.optional})
		}
	}
	if branch, ok := o.branchOf[employeeID]; ok {
		collect(o.branches[branch], domain.HolidaySourceBranch)
	}
	collect(o.employees[employeeID], domain.HolidaySourceEmployee)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
