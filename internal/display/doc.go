// Package display renders portraits as GTK4/libadwaita layer-shell windows.
// Each portrait is its own surface anchored to the left or right screen edge;
// the top margin is the lane position and the edge margin is the inset.
// Entry and exit transitions run as libadwaita timed animations, and all
// callbacks are dispatched on the GTK main loop through GLibLoop.
package display
