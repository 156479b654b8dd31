package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
)

// PauseHistoryStore is the append-only audit trail of controller actions.
type PauseHistoryStore interface {
	// Append stores a new record. Records are never updated or deleted.
	Append(ctx context.Context, record *domain.PauseHistoryRecord) error

	// ListByDefinition returns records for definitionID, newest first.
	ListByDefinition(ctx context.Context, definitionID uuid.UUID) ([]*domain.PauseHistoryRecord, error)

	// WithTx returns a PauseHistoryStore bound to tx.
	WithTx(tx *sql.Tx) PauseHistoryStore
}
