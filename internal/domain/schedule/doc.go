// Package schedule holds the pure decision rules layered on top of
// recurrence candidates: holiday adjustment, the pause gate and the
// generation window.
package schedule
