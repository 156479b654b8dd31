package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

// PostgresPauseHistoryStore implements store.PauseHistoryStore on the
// append-only pause_history table.
type PostgresPauseHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPauseHistoryStore creates a pause history store on db.
func NewPostgresPauseHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresPauseHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPauseHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "pause_history_store")),
	}
}

var _ store.PauseHistoryStore = (*PostgresPauseHistoryStore)(nil)

// Append implements store.PauseHistoryStore.
func (s *PostgresPauseHistoryStore) Append(ctx context.Context, record *domain.PauseHistoryRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO pause_history (id, definition_id, action, window_start, window_end, reason,
			instances_deleted, instances_created, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.DefinitionID, record.Action,
		nullTime(record.WindowStart), nullTime(record.WindowEnd), record.Reason,
		record.InstancesDeleted, record.InstancesCreated, record.Actor, record.CreatedAt)
	if err != nil {
		log.Error("failed to append pause history",
			slog.String("error", err.Error()),
			slog.String("definition_id", record.DefinitionID.String()),
			slog.String("action", string(record.Action)))
		return MapError(err)
	}
	return nil
}

// ListByDefinition implements store.PauseHistoryStore.
func (s *PostgresPauseHistoryStore) ListByDefinition(ctx context.Context, definitionID uuid.UUID) ([]*domain.PauseHistoryRecord, error) {
	query := `
		SELECT id, definition_id, action, window_start, window_end, reason,
			instances_deleted, instances_created, actor, created_at
		FROM pause_history
		WHERE definition_id = $1
		ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.PauseHistoryRecord
	for rows.Next() {
		var (
			rec                    domain.PauseHistoryRecord
			action                 string
			windowStart, windowEnd sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.DefinitionID, &action, &windowStart, &windowEnd, &rec.Reason,
			&rec.InstancesDeleted, &rec.InstancesCreated, &rec.Actor, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pause history row: %w", err)
		}
		rec.Action = domain.PauseAction(action)
		rec.WindowStart = timePtr(windowStart)
		rec.WindowEnd = timePtr(windowEnd)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pause history rows: %w", err)
	}
	return out, nil
}

// WithTx implements store.PauseHistoryStore.
func (s *PostgresPauseHistoryStore) WithTx(tx *sql.Tx) store.PauseHistoryStore {
	return &PostgresPauseHistoryStore{db: tx, logger: s.logger}
}
