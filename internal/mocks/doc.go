// Package mocks provides in-memory implementations of the store interfaces
// for tests.
//
// Each mock keeps real state behind a mutex so it behaves like a small
// database, counts calls so tests can assert query budgets, and exposes
// ...Fn fields that override individual methods:
//
//	instances := mocks.NewMockInstanceStore()
//	instances.BulkCreateFn = func(ctx context.Context, in []*domain.TaskInstance) (store.BulkResult, error) {
//	    return store.BulkResult{}, errors.New("database unavailable")
//	}
package mocks
