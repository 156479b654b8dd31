package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
)

// DefinitionStore persists task definitions.
type DefinitionStore interface {
	// Create saves a new definition.
	// Returns validation errors from the domain if data is invalid.
	Create(ctx context.Context, def *domain.TaskDefinition) error

	// GetByID retrieves a definition by ID.
	// Returns ErrDefinitionNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDefinition, error)

	// Update saves every mutable field of def, including pause state,
	// watermark and supersession links.
	// Returns ErrDefinitionNotFound if it does not exist.
	Update(ctx context.Context, def *domain.TaskDefinition) error

	// AdvanceWatermark moves generated_until forward to through. It never
	// moves the watermark backwards and never touches other fields.
	AdvanceWatermark(ctx context.Context, id uuid.UUID, through time.Time) error

	// ListActive returns all non-superseded definitions ordered by ID.
	ListActive(ctx context.Context) ([]*domain.TaskDefinition, error)

	// WithTx returns a DefinitionStore bound to tx.
	WithTx(tx *sql.Tx) DefinitionStore
}
