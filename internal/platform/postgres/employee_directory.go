package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// PostgresEmployeeDirectory answers role and reporting-chain questions from
// the employees table.
type PostgresEmployeeDirectory struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEmployeeDirectory creates an employee directory on db.
func NewPostgresEmployeeDirectory(db store.DBTX, logger *slog.Logger) *PostgresEmployeeDirectory {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEmployeeDirectory{
		db:     db,
		logger: logger.With(slog.String("component", "employee_directory")),
	}
}

var _ store.EmployeeDirectory = (*PostgresEmployeeDirectory)(nil)

// IsAdmin implements store.EmployeeDirectory. Unknown employees are not
// admins.
func (d *PostgresEmployeeDirectory) IsAdmin(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var admin bool
	err := d.db.QueryRowContext(ctx, `SELECT is_admin FROM employees WHERE id = $1`, employeeID).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Error("failed to look up admin role",
			slog.String("error", err.Error()),
			slog.String("employee_id", employeeID.String()))
		return false, MapError(err)
	}
	return admin, nil
}

// IsSuperior implements store.EmployeeDirectory by walking the manager chain
// upwards from employeeID. UNION stops the walk on a cycle.
func (d *PostgresEmployeeDirectory) IsSuperior(ctx context.Context, actorID, employeeID uuid.UUID) (bool, error) {
	if actorID == employeeID {
		return false, nil
	}

	query := `
		WITH RECURSIVE chain(manager_id) AS (
			SELECT manager_id FROM employees WHERE id = $2
			UNION
			SELECT e.manager_id FROM employees e JOIN chain c ON e.id = c.manager_id
		)
		SELECT EXISTS (SELECT 1 FROM chain WHERE manager_id = $1)`
	var superior bool
	if err := d.db.QueryRowContext(ctx, query, actorID, employeeID).Scan(&superior); err != nil {
		logger.FromContextOrDefault(ctx, d.logger).Error("failed to walk reporting chain",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()),
			slog.String("employee_id", employeeID.String()))
		return false, MapError(err)
	}
	return superior, nil
}
