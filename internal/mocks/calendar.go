package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/store"
)

// MockCalendarOracle implements store.CalendarOracle from a fixed list.
// Entries with a nil employee key apply to everyone.
type MockCalendarOracle struct {
	GetHolidaysFn func(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.HolidayDate, error)

	mu       sync.Mutex
	holidays map[uuid.UUID][]domain.HolidayDate

	Calls int
}

// NewMockCalendarOracle creates an oracle with no holidays.
func NewMockCalendarOracle() *MockCalendarOracle {
	return &MockCalendarOracle{holidays: make(map[uuid.UUID][]domain.HolidayDate)}
}

var _ store.CalendarOracle = (*MockCalendarOracle)(nil)

// AddBranchHoliday adds a mandatory holiday for everyone.
func (m *MockCalendarOracle) AddBranchHoliday(dates ...time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range dates {
		m.holidays[uuid.Nil] = append(m.holidays[uuid.Nil], domain.HolidayDate{Date: d, Source: domain.HolidaySourceBranch})
	}
}

// Add adds h for employeeID, or for everyone when employeeID is uuid.Nil.
func (m *MockCalendarOracle) Add(employeeID uuid.UUID, h domain.HolidayDate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[employeeID] = append(m.holidays[employeeID], h)
}

// GetHolidays implements store.CalendarOracle.
func (m *MockCalendarOracle) GetHolidays(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.HolidayDate, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GetHolidaysFn != nil {
		return m.GetHolidaysFn(ctx, employeeID, start, end)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HolidayDate
	for _, key := range []uuid.UUID{uuid.Nil, employeeID} {
		for _, h := range m.holidays[key] {
			if !h.Date.Before(domain.StartOfDay(start)) && !h.Date.After(end) {
				out = append(out, h)
			}
		}
		if employeeID == uuid.Nil {
			break
		}
	}
	return out, nil
}
