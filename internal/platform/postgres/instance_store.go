package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

const instanceColumns = `id, definition_id, assigned_to, due_date, slot_key, status, batch_id, created_at`

// PostgresInstanceStore implements store.InstanceStore. The
// task_instances_definition_slot_key constraint backs slot uniqueness.
type PostgresInstanceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInstanceStore creates an instance store on db.
func NewPostgresInstanceStore(db store.DBTX, logger *slog.Logger) *PostgresInstanceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInstanceStore{
		db:     db,
		logger: logger.With(slog.String("component", "instance_store")),
	}
}

var _ store.InstanceStore = (*PostgresInstanceStore)(nil)

// QueryDates implements store.InstanceStore.
func (s *PostgresInstanceStore) QueryDates(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT due_date FROM task_instances
		WHERE definition_id = $1 AND due_date BETWEEN $2 AND $3
		ORDER BY due_date`
	rows, err := s.db.QueryContext(ctx, query, definitionID, start, end)
	if err != nil {
		log.Error("failed to query instance dates",
			slog.String("error", err.Error()),
			slog.String("definition_id", definitionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var due time.Time
		if err := rows.Scan(&due); err != nil {
			return nil, fmt.Errorf("failed to scan instance date: %w", err)
		}
		dates = append(dates, due)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instance dates: %w", err)
	}
	return dates, nil
}

// BulkCreate implements store.InstanceStore. Each instance is inserted on
// its own; a slot conflict is counted as a duplicate and any other error is
// recorded against the item.
func (s *PostgresInstanceStore) BulkCreate(ctx context.Context, instances []*domain.TaskInstance) (store.BulkResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var res store.BulkResult
	if len(instances) == 0 {
		return res, nil
	}

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO task_instances (`+instanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (definition_id, slot_key) DO NOTHING`)
	if err != nil {
		log.Error("failed to prepare instance insert", slog.String("error", err.Error()))
		return res, MapError(err)
	}
	defer func() { _ = stmt.Close() }()

	for i, inst := range instances {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := inst.Validate(); err != nil {
			res.Failures = append(res.Failures, store.ItemFailure{Index: i, Instance: inst,
				Err: store.NewStoreError("task_instance", "bulk_create", "invalid instance", err)})
			continue
		}

		result, err := stmt.ExecContext(ctx,
			inst.ID, inst.DefinitionID, inst.AssignedTo, inst.DueDate,
			inst.SlotKey, inst.Status, inst.BatchID, inst.CreatedAt)
		if err != nil {
			log.Warn("failed to insert instance",
				slog.String("error", err.Error()),
				slog.String("definition_id", inst.DefinitionID.String()),
				slog.String("slot_key", inst.SlotKey))
			res.Failures = append(res.Failures, store.ItemFailure{Index: i, Instance: inst,
				Err: store.NewStoreError("task_instance", "bulk_create", "insert failed", MapError(err))})
			continue
		}

		n, err := result.RowsAffected()
		switch {
		case err != nil:
			res.Failures = append(res.Failures, store.ItemFailure{Index: i, Instance: inst,
				Err: store.NewStoreError("task_instance", "bulk_create", "rows affected unavailable",
					fmt.Errorf("%w: %v", store.ErrInternal, err))})
		case n == 0:
			res.Duplicates++
		default:
			res.Created++
		}
	}

	log.Debug("bulk instance insert finished",
		slog.Int("created", res.Created),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("failures", len(res.Failures)))
	return res, nil
}

// DeleteInRange implements store.InstanceStore.
func (s *PostgresInstanceStore) DeleteInRange(
	ctx context.Context,
	definitionID uuid.UUID,
	start time.Time,
	end *time.Time,
	excludeCompleted bool,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sb strings.Builder
	sb.WriteString(`DELETE FROM task_instances WHERE definition_id = $1 AND due_date >= $2`)
	args := []any{definitionID, start}
	if end != nil {
		args = append(args, *end)
		fmt.Fprintf(&sb, " AND due_date <= $%d", len(args))
	}
	if excludeCompleted {
		args = append(args, domain.InstanceStatusCompleted)
		fmt.Fprintf(&sb, " AND status <> $%d", len(args))
	}

	result, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to delete instances",
			slog.String("error", err.Error()),
			slog.String("definition_id", definitionID.String()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// ListByDefinition implements store.InstanceStore.
func (s *PostgresInstanceStore) ListByDefinition(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]*domain.TaskInstance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + instanceColumns + ` FROM task_instances
		WHERE definition_id = $1 AND due_date BETWEEN $2 AND $3
		ORDER BY due_date`
	rows, err := s.db.QueryContext(ctx, query, definitionID, start, end)
	if err != nil {
		log.Error("failed to list instances",
			slog.String("error", err.Error()),
			slog.String("definition_id", definitionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TaskInstance
	for rows.Next() {
		var (
			inst   domain.TaskInstance
			status string
		)
		if err := rows.Scan(&inst.ID, &inst.DefinitionID, &inst.AssignedTo, &inst.DueDate,
			&inst.SlotKey, &status, &inst.BatchID, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance row: %w", err)
		}
		inst.Status = domain.InstanceStatus(status)
		out = append(out, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instance rows: %w", err)
	}
	return out, nil
}

// WithTx implements store.InstanceStore.
func (s *PostgresInstanceStore) WithTx(tx *sql.Tx) store.InstanceStore {
	return &PostgresInstanceStore{db: tx, logger: s.logger}
}
