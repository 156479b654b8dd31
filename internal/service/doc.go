// Package service holds the application use cases that sit between the HTTP
// layer and the stores.
//
// DefinitionService owns the task definition lifecycle: creation, edits
// (which supersede the definition when its recurrence or name changes) and
// instance listing. Multi-store writes run inside store.RunInTransaction
// with transaction-bound stores.
package service
