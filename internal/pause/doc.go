// Package pause implements the pause/resume state machine for task
// definitions.
//
// A definition is Active, PausedBounded or PausedIndefinite. Pausing deletes
// the open instances inside the window; resuming clears the window,
// optionally backfills what a bounded pause suppressed, and regenerates the
// rest of the current week. ManualGenerate lets a superior fill an explicit
// range without touching pause state. Every action writes one
// PauseHistoryRecord.
package pause
