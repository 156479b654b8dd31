// Package task runs background work for cadence.
//
// Regeneration requests emitted by the definition service are persisted as
// task records, executed by a small worker pool and recovered after a
// restart. The periodic sweep is driven by a cron Scheduler in the same
// package.
package task
