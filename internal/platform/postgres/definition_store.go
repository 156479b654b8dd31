package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/store"
)

const definitionColumns = `id, name, description, owner_id, assigned_to, rule, due_hour, due_minute,
	holiday_mode, start_date, end_date, pause_start, pause_end, pause_reason, paused_by, paused_at,
	generated_until, status, superseded_by, supersedes, created_at, updated_at`

// PostgresDefinitionStore implements store.DefinitionStore. The recurrence
// rule is stored as JSONB and the pause window is flattened into columns.
type PostgresDefinitionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDefinitionStore creates a definition store on db, which may be a
// *sql.DB or a *sql.Tx.
func NewPostgresDefinitionStore(db store.DBTX, logger *slog.Logger) *PostgresDefinitionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDefinitionStore{
		db:     db,
		logger: logger.With(slog.String("component", "definition_store")),
	}
}

var _ store.DefinitionStore = (*PostgresDefinitionStore)(nil)

// Create implements store.DefinitionStore.
func (s *PostgresDefinitionStore) Create(ctx context.Context, def *domain.TaskDefinition) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := def.Validate(); err != nil {
		log.Warn("definition validation failed during create",
			slog.String("error", err.Error()),
			slog.String("definition_id", def.ID.String()))
		return err
	}

	args, err := definitionArgs(def)
	if err != nil {
		return err
	}

	query := `INSERT INTO task_definitions (` + definitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to create definition",
			slog.String("error", err.Error()),
			slog.String("definition_id", def.ID.String()))
		return MapError(err)
	}

	log.Debug("definition created", slog.String("definition_id", def.ID.String()))
	return nil
}

// GetByID implements store.DefinitionStore.
func (s *PostgresDefinitionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + definitionColumns + ` FROM task_definitions WHERE id = $1`
	def, err := scanDefinition(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("definition not found", slog.String("definition_id", id.String()))
			return nil, store.ErrDefinitionNotFound
		}
		log.Error("failed to get definition",
			slog.String("error", err.Error()),
			slog.String("definition_id", id.String()))
		return nil, MapError(err)
	}
	return def, nil
}

// Update implements store.DefinitionStore.
func (s *PostgresDefinitionStore) Update(ctx context.Context, def *domain.TaskDefinition) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := def.Validate(); err != nil {
		return err
	}
	args, err := definitionArgs(def)
	if err != nil {
		return err
	}

	query := `
		UPDATE task_definitions SET
			name = $2, description = $3, owner_id = $4, assigned_to = $5, rule = $6,
			due_hour = $7, due_minute = $8, holiday_mode = $9, start_date = $10, end_date = $11,
			pause_start = $12, pause_end = $13, pause_reason = $14, paused_by = $15, paused_at = $16,
			generated_until = $17, status = $18, superseded_by = $19, supersedes = $20,
			updated_at = $21
		WHERE id = $1`
	// created_at is immutable.
	args = append(args[:20], args[21])
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update definition",
			slog.String("error", err.Error()),
			slog.String("definition_id", def.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDefinitionNotFound)
}

// AdvanceWatermark implements store.DefinitionStore. GREATEST ignores NULL,
// so an unset watermark takes through directly.
func (s *PostgresDefinitionStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, through time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE task_definitions SET generated_until = GREATEST(generated_until, $2) WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, through)
	if err != nil {
		log.Error("failed to advance watermark",
			slog.String("error", err.Error()),
			slog.String("definition_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDefinitionNotFound)
}

// ListActive implements store.DefinitionStore.
func (s *PostgresDefinitionStore) ListActive(ctx context.Context) ([]*domain.TaskDefinition, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + definitionColumns + ` FROM task_definitions WHERE status = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, domain.DefinitionStatusActive)
	if err != nil {
		log.Error("failed to list active definitions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var defs []*domain.TaskDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition row: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definition rows: %w", err)
	}
	return defs, nil
}

// WithTx implements store.DefinitionStore.
func (s *PostgresDefinitionStore) WithTx(tx *sql.Tx) store.DefinitionStore {
	return &PostgresDefinitionStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func definitionArgs(def *domain.TaskDefinition) ([]any, error) {
	rule, err := json.Marshal(def.Rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence rule: %w", err)
	}

	var (
		pauseStart, pauseEnd, pausedAt sql.NullTime
		pauseReason                    sql.NullString
		pausedBy                       uuid.NullUUID
	)
	if p := def.Pause; p != nil {
		pauseStart = sql.NullTime{Time: p.Start, Valid: true}
		pauseEnd = nullTime(p.End)
		pauseReason = sql.NullString{String: p.Reason, Valid: true}
		pausedBy = uuid.NullUUID{UUID: p.Actor, Valid: p.Actor != uuid.Nil}
		pausedAt = sql.NullTime{Time: p.PausedAt, Valid: !p.PausedAt.IsZero()}
	}

	return []any{
		def.ID, def.Name, def.Description, def.OwnerID, def.AssignedTo, rule,
		def.DueTime.Hour, def.DueTime.Minute, def.HolidayMode,
		def.StartDate, nullTime(def.EndDate),
		pauseStart, pauseEnd, pauseReason, pausedBy, pausedAt,
		nullTime(def.GeneratedUntil), def.Status,
		nullUUID(def.SupersededBy), nullUUID(def.Supersedes),
		def.CreatedAt, def.UpdatedAt,
	}, nil
}

func scanDefinition(row rowScanner) (*domain.TaskDefinition, error) {
	var (
		def                                domain.TaskDefinition
		rule                               []byte
		endDate, generatedUntil            sql.NullTime
		pauseStart, pauseEnd, pausedAt     sql.NullTime
		pauseReason                        sql.NullString
		pausedBy, supersededBy, supersedes uuid.NullUUID
		holidayMode, status                string
	)

	err := row.Scan(
		&def.ID, &def.Name, &def.Description, &def.OwnerID, &def.AssignedTo, &rule,
		&def.DueTime.Hour, &def.DueTime.Minute, &holidayMode,
		&def.StartDate, &endDate,
		&pauseStart, &pauseEnd, &pauseReason, &pausedBy, &pausedAt,
		&generatedUntil, &status, &supersededBy, &supersedes,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rule, &def.Rule); err != nil {
		return nil, fmt.Errorf("failed to decode recurrence rule: %w", err)
	}
	def.HolidayMode = domain.HolidayMode(holidayMode)
	def.Status = domain.DefinitionStatus(status)
	def.EndDate = timePtr(endDate)
	def.GeneratedUntil = timePtr(generatedUntil)
	def.SupersededBy = uuidPtr(supersededBy)
	def.Supersedes = uuidPtr(supersedes)

	if pauseStart.Valid {
		def.Pause = &domain.PauseWindow{
			Start:    pauseStart.Time,
			End:      timePtr(pauseEnd),
			Reason:   pauseReason.String,
			Actor:    pausedBy.UUID,
			PausedAt: pausedAt.Time,
		}
	}
	return &def, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
