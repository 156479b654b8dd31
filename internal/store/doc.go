// Package store defines the persistence interfaces the scheduling engine
// depends on: definitions, materialized instances, the pause audit trail,
// the holiday calendar oracle and the employee directory. Implementations
// live in internal/platform/postgres; in-memory fakes live in internal/mocks.
package store
