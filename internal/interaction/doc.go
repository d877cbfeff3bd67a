// Package interaction drives the transient UI state around annotations.
//
// A Controller turns host events (selection changes, pointer enter and
// leave over spans and the preview surface, affordance activation, editor
// close) into annotation engine calls and a single visible State:
//
//	none        nothing shown
//	affordance  the "add note" button at the selection's trailing edge
//	preview     a read-only view of one note below its span
//	editor      the note editor for one id
//
// Hiding a preview after the pointer leaves is debounced through a
// Scheduler so that the pointer can travel from the span into the preview.
// TimerScheduler posts expired actions back onto the host's event loop;
// ManualScheduler advances a virtual clock for tests.
//
// The controller holds no persisted state and is not safe for concurrent
// use; it belongs to the goroutine that runs the host's event loop.
package interaction
