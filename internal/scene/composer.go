package scene

import (
	"errors"
	"fmt"

	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/tracking/lookup"
	"github.com/banshee-data/pitch.replay/internal/tracking/resample"
	"github.com/banshee-data/pitch.replay/internal/units"
)

// ErrFrameOutOfRange is returned for a frame index outside [0, Len()).
var ErrFrameOutOfRange = errors.New("frame index out of range")

// Source yields composed scenes by frame index.
type Source interface {
	Len() int
	SceneAt(i int) (Scene, error)
}

// Composer combines a resampled ball track with the lookup indexes of both
// rosters.
type Composer struct {
	ball  *resample.Track
	home  *lookup.Index
	away  *lookup.Index
	scale float64
}

// NewComposer returns a Composer. home and away may be nil, in which case
// the corresponding roster is always empty. scale is the divisor from
// recorded units to meters.
func NewComposer(ball *resample.Track, home, away *lookup.Index, scale float64) *Composer {
	return &Composer{ball: ball, home: home, away: away, scale: scale}
}

// Len returns the number of frames, which is the resampled ball length.
func (c *Composer) Len() int {
	if c.ball == nil {
		return 0
	}
	return c.ball.Len()
}

// Scale returns the recorded-units-per-meter divisor.
func (c *Composer) Scale() float64 { return c.scale }

// SceneAt composes frame i.
func (c *Composer) SceneAt(i int) (Scene, error) {
	if i < 0 || i >= c.Len() {
		return Scene{}, fmt.Errorf("frame %d of %d: %w", i, c.Len(), ErrFrameOutOfRange)
	}

	p := c.ball.At(i)
	f := p.VirtualFrame
	return Scene{
		Index:        i,
		VirtualFrame: f,
		Ball:         c.toMeters(p.Position),
		Home:         c.roster(c.home, f),
		Away:         c.roster(c.away, f),
	}, nil
}

func (c *Composer) roster(ix *lookup.Index, f float64) map[string]tracking.Point {
	if ix == nil {
		return map[string]tracking.Point{}
	}
	pos := ix.At(f)
	for id, p := range pos {
		pos[id] = c.toMeters(p)
	}
	return pos
}

func (c *Composer) toMeters(p tracking.Point) tracking.Point {
	return tracking.Point{
		X: units.ToMeters(p.X, c.scale),
		Y: units.ToMeters(p.Y, c.scale),
	}
}
