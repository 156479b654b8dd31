// Package recurrence expands a recurrence rule into concrete due instants.
//
// Candidates is a pure function of its inputs: it holds no state, performs no
// I/O and can be re-run for any window. Holiday shifting, pause handling and
// deduplication are layered on top by package schedule and the materializer.
package recurrence
