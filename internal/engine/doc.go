// Package engine contains the remapping runtime: the single-goroutine
// event dispatcher, the per-key tap-hold resolver, and the output
// emitter.
//
// All physical key events are totally ordered and processed by one
// dispatch loop. Tap-hold timeouts and table reloads are merged into the
// same loop through a combined wait, so a timeout and a newly arriving
// physical event are never handled simultaneously. The layer stack and
// per-key state are owned exclusively by the loop goroutine.
package engine
