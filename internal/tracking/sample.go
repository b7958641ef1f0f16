package tracking

import "maps"

// BallID is the reserved entity id of the singleton tracked object.
const BallID = "ball"

// Point is a planar position. Units are whatever the feed records until the
// scene composer converts them to meters.
type Point struct {
	X float64
	Y float64
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + t*(q.X-p.X),
		Y: p.Y + t*(q.Y-p.Y),
	}
}

// Scale divides both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

// Sample is one observation of one tracked entity.
type Sample struct {
	FrameID   int64   // recording tick, non-decreasing within a track
	Timestamp float64 // seconds
	EntityID  string
	Position  Point
	Group     string // team id; empty for the ball
	Period    int    // match half

	// Extra holds optional numeric auxiliary fields (e.g. "speed").
	Extra map[string]float64
}

// IsBall reports whether the sample belongs to the singleton ball track.
func (s Sample) IsBall() bool {
	return s.EntityID == BallID
}

func (s Sample) clone() Sample {
	if s.Extra != nil {
		s.Extra = maps.Clone(s.Extra)
	}
	return s
}
