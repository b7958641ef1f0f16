// Package scene composes the per-frame picture of a match window: the ball
// at its own resampled index plus both team rosters looked up at the
// ball's virtual frame, converted to meters.
//
// A Composer is read-only after construction and may be queried from many
// goroutines. Precompute renders every frame of a Source in parallel while
// preserving frame-index order, substituting a placeholder for any frame
// that fails.
package scene
