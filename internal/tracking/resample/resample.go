// Package resample upsamples a sparse entity track onto a dense, uniform
// virtual-index grid.
//
// A track of N samples resampled with factor k always yields exactly N*k
// points spread evenly over source indices [0, N-1], so the first and last
// points coincide with the first and last samples. Positions use a
// monotone cubic (Fritsch-Butland) when N >= 4 and fall back to piecewise
// linear otherwise; FrameID becomes a linearly interpolated virtual frame.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/pitch.replay/internal/monitoring"
	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// MinCubicSamples is the smallest track that is interpolated with a cubic.
const MinCubicSamples = 4

// ErrInvalidFactor is returned for an upsample factor below 1.
var ErrInvalidFactor = errors.New("upsample factor must be at least 1")

// Method identifies the position interpolator used for a track.
type Method int

const (
	MethodCubic  Method = 0 // Fritsch-Butland monotone cubic
	MethodLinear Method = 1 // degenerate fallback for 2-3 samples
)

func (m Method) String() string {
	switch m {
	case MethodCubic:
		return "cubic"
	case MethodLinear:
		return "linear"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Point is one resampled entry.
type Point struct {
	Index        int
	VirtualFrame float64 // interpolated FrameID, not necessarily integral
	Position     tracking.Point
	Timestamp    float64
	Period       int // nearest source sample
	EntityID     string
	Group        string // nearest source sample
	Extra        map[string]float64
}

// Track is the dense output of Resample. It is immutable.
type Track struct {
	EntityID  string
	Factor    int
	SourceLen int
	Method    Method
	points    []Point
}

// Len returns the number of resampled points.
func (t *Track) Len() int { return len(t.points) }

// At returns the i'th resampled point.
func (t *Track) At(i int) Point { return t.points[i] }

// Points returns a copy of the resampled points.
func (t *Track) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Length is the resampled length for a track of n samples and factor k.
func Length(n, k int) int {
	return n * k
}

// FactorFor picks the factor k so that a track of n samples spanning
// duration seconds plays back at roughly fps frames per second.
// It never returns less than 1.
func FactorFor(duration, fps float64, n int) int {
	if n < 1 || duration <= 0 || fps <= 0 {
		return 1
	}
	k := int(math.Floor(duration * fps / float64(n)))
	if k < 1 {
		return 1
	}
	return k
}

// Resample upsamples tr by factor k. It fails with
// tracking.ErrInsufficientSamples when tr has fewer than two samples.
func Resample(tr tracking.Track, k int) (*Track, error) {
	if err := tr.Interpolable(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("resample %q with factor %d: %w", tr.EntityID(), k, ErrInvalidFactor)
	}

	samples := tr.Samples()
	n := len(samples)

	src := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	frames := make([]float64, n)
	stamps := make([]float64, n)
	for i, s := range samples {
		src[i] = float64(i)
		xs[i] = s.Position.X
		ys[i] = s.Position.Y
		frames[i] = float64(s.FrameID)
		stamps[i] = s.Timestamp
	}

	grid := floats.Span(make([]float64, Length(n, k)), 0, float64(n-1))
	grid[len(grid)-1] = float64(n - 1)

	method := MethodCubic
	if n < MinCubicSamples {
		method = MethodLinear
		monitoring.Logf("[resample] track %q has %d samples, using linear interpolation", tr.EntityID(), n)
	}

	px, err := fit(method, src, xs)
	if err != nil {
		return nil, fmt.Errorf("resample %q x: %w", tr.EntityID(), err)
	}
	py, err := fit(method, src, ys)
	if err != nil {
		return nil, fmt.Errorf("resample %q y: %w", tr.EntityID(), err)
	}
	pf, err := fit(MethodLinear, src, frames)
	if err != nil {
		return nil, fmt.Errorf("resample %q frame_id: %w", tr.EntityID(), err)
	}

	timestamps := numericField(src, grid, stamps, allFinite(stamps))
	extras := extraFields(src, grid, samples)

	points := make([]Point, len(grid))
	for i, g := range grid {
		near := samples[nearest(g, n)]
		p := Point{
			Index:        i,
			VirtualFrame: pf.Predict(g),
			Position:     tracking.Point{X: px.Predict(g), Y: py.Predict(g)},
			Timestamp:    timestamps[i],
			Period:       near.Period,
			EntityID:     tr.EntityID(),
			Group:        near.Group,
		}
		if len(extras) > 0 {
			p.Extra = make(map[string]float64, len(extras))
			for name, vals := range extras {
				if !math.IsNaN(vals[i]) {
					p.Extra[name] = vals[i]
				}
			}
		}
		points[i] = p
	}

	return &Track{
		EntityID:  tr.EntityID(),
		Factor:    k,
		SourceLen: n,
		Method:    method,
		points:    points,
	}, nil
}

func fit(m Method, xs, ys []float64) (interp.Predictor, error) {
	var fp interp.FittablePredictor
	switch m {
	case MethodCubic:
		fp = &interp.FritschButland{}
	default:
		fp = &interp.PiecewiseLinear{}
	}
	if err := fp.Fit(xs, ys); err != nil {
		return nil, err
	}
	return fp, nil
}

// nearest maps a grid coordinate to the closest source index in [0, n-1].
func nearest(g float64, n int) int {
	i := int(math.Round(g))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// numericField interpolates vals linearly over grid, or carries over the
// nearest source value when linear is false.
func numericField(src, grid, vals []float64, linear bool) []float64 {
	out := make([]float64, len(grid))
	if linear {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(src, vals); err == nil {
			for i, g := range grid {
				out[i] = pl.Predict(g)
			}
			return out
		}
	}
	for i, g := range grid {
		out[i] = vals[nearest(g, len(vals))]
	}
	return out
}

// extraFields resamples every Extra key. Keys missing on some samples, or
// holding non-finite values, are carried over from the nearest sample; a
// NaN in the output marks "absent at the nearest sample".
func extraFields(src, grid []float64, samples []tracking.Sample) map[string][]float64 {
	keys := make(map[string]struct{})
	for _, s := range samples {
		for k := range s.Extra {
			keys[k] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return nil
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string][]float64, len(names))
	for _, name := range names {
		vals := make([]float64, len(samples))
		complete := true
		for i, s := range samples {
			v, ok := s.Extra[name]
			if !ok {
				v = math.NaN()
				complete = false
			}
			vals[i] = v
		}
		linear := complete && allFinite(vals)
		if !linear {
			monitoring.Logf("[resample] field %q is not interpolable, carrying nearest value", name)
		}
		out[name] = numericField(src, grid, vals, linear)
	}
	return out
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
