// Package materialize turns task definitions into concrete task instances.
//
// A run computes candidates with package recurrence, filters them through
// the series bounds, the past-due rule and the pause gate, adjusts them for
// holidays and submits the survivors in one bulk insert. Existing instances
// and holidays are preloaded once per definition for the whole window, so a
// run costs two reads per definition regardless of how many candidates it
// produces.
package materialize
