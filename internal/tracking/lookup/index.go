// Package lookup answers "where is every entity of a roster at virtual
// frame F" by bracketing F between the roster's recorded keyframes and
// interpolating linearly.
//
// An Index is immutable after NewIndex and safe for concurrent use.
package lookup

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// Policy decides what happens to an entity that is not recorded at both
// bracketing keyframes of the roster.
type Policy int

const (
	// Intersect omits the entity from the result.
	Intersect Policy = 0
	// HoldLast brackets each entity against its own recorded frames. It
	// interpolates between them and holds the last known position after
	// the entity's final sample. Before its first sample the entity is
	// omitted.
	HoldLast Policy = 1
)

func (p Policy) String() string {
	switch p {
	case Intersect:
		return "intersect"
	case HoldLast:
		return "hold_last"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "intersect":
		return Intersect, nil
	case "hold_last":
		return HoldLast, nil
	default:
		return Intersect, fmt.Errorf("unknown missing-entity policy %q", s)
	}
}

// Index holds the sorted unique keyframes of a roster and every entity's
// position at each keyframe.
type Index struct {
	group     string
	policy    Policy
	frames    []float64
	positions []map[string]tracking.Point // aligned with frames
	tracks    map[string]entityTrack      // HoldLast only
}

// entityTrack is one entity's own keyframes.
type entityTrack struct {
	frames []float64
	points []tracking.Point
}

// NewIndex builds an Index over every track in r.
func NewIndex(r tracking.Roster, policy Policy) *Index {
	byFrame := make(map[int64]map[string]tracking.Point)
	var tracks map[string]entityTrack
	if policy == HoldLast {
		tracks = make(map[string]entityTrack)
	}
	for _, id := range r.EntityIDs() {
		tr, _ := r.Track(id)
		var et entityTrack
		for i := 0; i < tr.Len(); i++ {
			s := tr.At(i)
			m, ok := byFrame[s.FrameID]
			if !ok {
				m = make(map[string]tracking.Point)
				byFrame[s.FrameID] = m
			}
			m[id] = s.Position
			if tracks != nil {
				et.frames = append(et.frames, float64(s.FrameID))
				et.points = append(et.points, s.Position)
			}
		}
		if tracks != nil && len(et.frames) > 0 {
			tracks[id] = et
		}
	}

	keys := make([]int64, 0, len(byFrame))
	for f := range byFrame {
		keys = append(keys, f)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ix := &Index{
		group:     r.Group(),
		policy:    policy,
		frames:    make([]float64, len(keys)),
		positions: make([]map[string]tracking.Point, len(keys)),
		tracks:    tracks,
	}
	for i, f := range keys {
		ix.frames[i] = float64(f)
		ix.positions[i] = byFrame[f]
	}
	return ix
}

// Group returns the roster group the index was built from.
func (ix *Index) Group() string { return ix.group }

// Policy returns the missing-entity policy.
func (ix *Index) Policy() Policy { return ix.policy }

// Len returns the number of keyframes.
func (ix *Index) Len() int { return len(ix.frames) }

// Frames returns a copy of the sorted keyframes.
func (ix *Index) Frames() []float64 {
	out := make([]float64, len(ix.frames))
	copy(out, ix.frames)
	return out
}

// Entities returns the sorted ids of every entity recorded at any keyframe.
func (ix *Index) Entities() []string {
	seen := make(map[string]struct{})
	for _, m := range ix.positions {
		for id := range m {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bracket returns the keyframe indices surrounding f and the interpolation
// fraction between them. When f is a keyframe, or lies outside the keyframe
// range, both indices name that keyframe (or the nearest end) and frac is 0.
// ok is false for an empty index or NaN f.
func (ix *Index) Bracket(f float64) (lo, hi int, frac float64, ok bool) {
	if len(ix.frames) == 0 || math.IsNaN(f) {
		return 0, 0, 0, false
	}
	lo, hi, frac = bracket(ix.frames, f)
	return lo, hi, frac, true
}

// bracket locates f in the sorted non-empty frames.
func bracket(frames []float64, f float64) (lo, hi int, frac float64) {
	n := len(frames)
	if f <= frames[0] {
		return 0, 0, 0
	}
	if f >= frames[n-1] {
		return n - 1, n - 1, 0
	}

	// frames[lo] <= f < frames[lo+1]
	lo = sort.Search(n, func(j int) bool { return frames[j] > f }) - 1
	if frames[lo] == f {
		return lo, lo, 0
	}
	hi = lo + 1
	return lo, hi, (f - frames[lo]) / (frames[hi] - frames[lo])
}

// At returns the interpolated position of each entity at virtual frame f.
// The result is never nil; an empty map means no entity qualified. f is
// clamped to the roster's keyframe range.
func (ix *Index) At(f float64) map[string]tracking.Point {
	lo, hi, frac, ok := ix.Bracket(f)
	if !ok {
		return map[string]tracking.Point{}
	}
	if ix.policy == HoldLast {
		return ix.holdLastAt(min(max(f, ix.frames[0]), ix.frames[len(ix.frames)-1]))
	}

	before, after := ix.positions[lo], ix.positions[hi]
	out := make(map[string]tracking.Point, len(before))
	for id, p := range before {
		if q, both := after[id]; both {
			out[id] = p.Lerp(q, frac)
		}
	}
	return out
}

func (ix *Index) holdLastAt(f float64) map[string]tracking.Point {
	out := make(map[string]tracking.Point, len(ix.tracks))
	for id, et := range ix.tracks {
		if f < et.frames[0] {
			continue
		}
		lo, hi, frac := bracket(et.frames, f)
		out[id] = et.points[lo].Lerp(et.points[hi], frac)
	}
	return out
}
