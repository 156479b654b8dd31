package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/domain"
)

// ItemFailure records one instance that bulk creation could not persist.
type ItemFailure struct {
	Index    int
	Instance *domain.TaskInstance
	Err      error
}

// BulkResult aggregates a partially-failing bulk creation.
type BulkResult struct {
	// Created counts inserted instances.
	Created int

	// Duplicates counts instances rejected by the (definition, slot)
	// uniqueness backstop, typically because a concurrent run won the race.
	Duplicates int

	// Failures lists every other per-item error.
	Failures []ItemFailure
}

// Failed reports whether any item failed.
func (r BulkResult) Failed() bool {
	return len(r.Failures) > 0
}

// InstanceStore persists materialized task instances and enforces the
// (definition, slot) uniqueness invariant.
type InstanceStore interface {
	// QueryDates returns the due dates of every instance of definitionID
	// due in [start, end], in a single query.
	QueryDates(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]time.Time, error)

	// BulkCreate inserts instances one by one, continuing past bad records.
	// The error return is reserved for failures that prevented the batch
	// from running at all.
	BulkCreate(ctx context.Context, instances []*domain.TaskInstance) (BulkResult, error)

	// DeleteInRange removes instances of definitionID due at or after start
	// and, when end is non-nil, at or before end. excludeCompleted keeps
	// completed instances. Returns the number removed.
	DeleteInRange(ctx context.Context, definitionID uuid.UUID, start time.Time, end *time.Time, excludeCompleted bool) (int, error)

	// ListByDefinition returns instances of definitionID due in [start, end]
	// ordered by due date.
	ListByDefinition(ctx context.Context, definitionID uuid.UUID, start, end time.Time) ([]*domain.TaskInstance, error)

	// WithTx returns an InstanceStore bound to tx.
	WithTx(tx *sql.Tx) InstanceStore
}
