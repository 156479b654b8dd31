package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
)

// CalendarOracle reports holidays for an employee. Implementations must be
// idempotent and free of side effects.
type CalendarOracle interface {
	// GetHolidays returns the holidays applying to employeeID between start
	// and end (inclusive), ordered by date.
	GetHolidays(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.HolidayDate, error)
}

// EmployeeDirectory answers the authorization questions the pause
// controller asks about actors.
type EmployeeDirectory interface {
	// IsAdmin reports whether the employee holds the admin role.
	IsAdmin(ctx context.Context, employeeID uuid.UUID) (bool, error)

	// IsSuperior reports whether actorID is above employeeID in the
	// reporting chain, at any depth.
	IsSuperior(ctx context.Context, actorID, employeeID uuid.UUID) (bool, error)
}
