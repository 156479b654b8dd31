package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// PostgresCalendarOracle reads branch holidays for the employee's branch
// and the employee's own holidays. Bounds are compared as calendar dates in
// the business location.
type PostgresCalendarOracle struct {
	db     store.DBTX
	loc    *time.Location
	logger *slog.Logger
}

// NewPostgresCalendarOracle creates a calendar oracle on db.
func NewPostgresCalendarOracle(db store.DBTX, loc *time.Location, logger *slog.Logger) *PostgresCalendarOracle {
	if db == nil {
		panic("db cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCalendarOracle{
		db:     db,
		loc:    loc,
		logger: logger.With(slog.String("component", "calendar_oracle")),
	}
}

var _ store.CalendarOracle = (*PostgresCalendarOracle)(nil)

// GetHolidays implements store.CalendarOracle.
func (o *PostgresCalendarOracle) GetHolidays(ctx context.Context, employeeID uuid.UUID, start, end time.Time) ([]domain.HolidayDate, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	query := `
		SELECT bh.holiday_date, 'branch' AS source, bh.is_optional
		FROM branch_holidays bh
		JOIN employees e ON e.branch_id = bh.branch_id
		WHERE e.id = $1 AND bh.holiday_date BETWEEN $2::date AND $3::date
		UNION ALL
		SELECT eh.holiday_date, 'employee' AS source, eh.is_optional
		FROM employee_holidays eh
		WHERE eh.employee_id = $1 AND eh.holiday_date BETWEEN $2::date AND $3::date
		ORDER BY 1, 2`
	rows, err := o.db.QueryContext(ctx, query, employeeID,
		domain.DateKey(start.In(o.loc)), domain.DateKey(end.In(o.loc)))
	if err != nil {
		log.Error("failed to query holidays",
			slog.String("error", err.Error()),
			slog.String("employee_id", employeeID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.HolidayDate
	for rows.Next() {
		var (
			h      domain.HolidayDate
			source string
		)
		if err := rows.Scan(&h.Date, &source, &h.IsOptional); err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}
		h.Source = domain.HolidaySource(source)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holiday rows: %w", err)
	}
	return out, nil
}
