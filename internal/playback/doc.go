// Package playback maps elapsed wall time onto a composed frame sequence.
//
// A Clock is a small state machine (Stopped, Playing, Paused) that turns
// the time since Start, minus any time spent paused, into a frame index.
// A Session owns the clock together with the resampled window it drives
// and swaps both atomically when a new window is started.
//
// Transitions serialise on a mutex. Queries read an immutable snapshot
// and never block.
package playback
