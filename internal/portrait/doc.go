// Package portrait implements the portrait overlay core: the lane-packing
// layout engine, the per-item lifecycle manager, the broadcast coordinator
// that feeds local and remote events into it, and the drag handler that
// lets a user reposition an item by hand.
//
// Everything in this package runs on a single cooperative event loop (see
// Loop). Manager methods must only be called from loop callbacks; the
// Coordinator marshals onto the loop for callers on other goroutines.
package portrait
