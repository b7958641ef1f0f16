package scene

import "github.com/banshee-data/pitch.replay/internal/tracking"

// Scene is the composed state of one animation frame. Coordinates are in
// meters. Home and Away are never nil.
type Scene struct {
	Index        int
	VirtualFrame float64
	Ball         tracking.Point
	Home         map[string]tracking.Point
	Away         map[string]tracking.Point

	// Placeholder marks a frame that could not be composed and was
	// substituted during precompute.
	Placeholder bool
}

// Placeholder returns the stand-in scene for frame i.
func Placeholder(i int) Scene {
	return Scene{
		Index:       i,
		Home:        map[string]tracking.Point{},
		Away:        map[string]tracking.Point{},
		Placeholder: true,
	}
}

// Entities returns the number of players in the scene, excluding the ball.
func (s Scene) Entities() int {
	return len(s.Home) + len(s.Away)
}
