package lookup

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitch.replay/internal/testutil"
	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// linearAt is a straightforward scan used as an oracle for Index.At under
// the Intersect policy.
func linearAt(frames []float64, positions []map[string]tracking.Point, f float64) map[string]tracking.Point {
	out := map[string]tracking.Point{}
	n := len(frames)
	if n == 0 {
		return out
	}
	lo, hi := 0, 0
	switch {
	case f <= frames[0]:
	case f >= frames[n-1]:
		lo, hi = n-1, n-1
	default:
		for j := 0; j < n-1; j++ {
			if frames[j] == f {
				lo, hi = j, j
				break
			}
			if frames[j] < f && f < frames[j+1] {
				lo, hi = j, j+1
				break
			}
		}
	}
	frac := 0.0
	if hi != lo {
		frac = (f - frames[lo]) / (frames[hi] - frames[lo])
	}
	for id, p := range positions[lo] {
		if q, ok := positions[hi][id]; ok {
			out[id] = p.Lerp(q, frac)
		}
	}
	return out
}

func assertPoint(t *testing.T, want, got tracking.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestIndex_InterpolatesBetweenKeyframes(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "home",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 10, 100, 100),
	)
	ix := NewIndex(r, Intersect)

	got := ix.At(5)
	require.Contains(t, got, "p1")
	assertPoint(t, tracking.Point{X: 50, Y: 50}, got["p1"])
}

func TestIndex_ClampsOutsideRange(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "home",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 10, 10, 10),
	)
	ix := NewIndex(r, Intersect)

	t.Run("below", func(t *testing.T) {
		got := ix.At(-3)
		assertPoint(t, tracking.Point{X: 0, Y: 0}, got["p1"])
	})
	t.Run("above", func(t *testing.T) {
		got := ix.At(25)
		assertPoint(t, tracking.Point{X: 10, Y: 10}, got["p1"])
	})
	t.Run("exact keyframe", func(t *testing.T) {
		got := ix.At(10)
		assertPoint(t, tracking.Point{X: 10, Y: 10}, got["p1"])
	})
}

func TestIndex_IntersectOmitsOneSidedEntities(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "away",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 10, 100, 100),
		testutil.At("p2", 0, 7, 7),
	)
	ix := NewIndex(r, Intersect)

	got := ix.At(5)
	assert.Contains(t, got, "p1")
	assert.NotContains(t, got, "p2")

	// At the keyframe itself p2 is present on both sides of the bracket.
	at0 := ix.At(0)
	assertPoint(t, tracking.Point{X: 7, Y: 7}, at0["p2"])
}

func TestIndex_ExactKeyframeUsesThatKeyframe(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "away",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 10, 10, 10),
		testutil.At("p1", 15, 20, 20),
		testutil.At("p3", 0, 5, 5),
		testutil.At("p3", 10, 6, 6),
	)
	ix := NewIndex(r, Intersect)

	got := ix.At(10)
	require.Len(t, got, 2)
	assertPoint(t, tracking.Point{X: 10, Y: 10}, got["p1"])
	assertPoint(t, tracking.Point{X: 6, Y: 6}, got["p3"])

	// Just past the keyframe p3 has no later sample.
	assert.NotContains(t, ix.At(10.5), "p3")
}

func TestIndex_HoldLastUsesEntityKeyframes(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "away",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 20, 100, 200),
		testutil.At("p2", 0, 0, 0),
		testutil.At("p2", 10, 1, 1),
		testutil.At("p2", 15, 2, 2),
		testutil.At("p2", 20, 3, 3),
		testutil.At("p4", 0, 7, 7),
		testutil.At("p5", 10, 3, 4),
	)
	ix := NewIndex(r, HoldLast)

	t.Run("straddles roster keyframes where it is absent", func(t *testing.T) {
		got := ix.At(12)
		require.Contains(t, got, "p1")
		assertPoint(t, tracking.Point{X: 60, Y: 120}, got["p1"])
		assertPoint(t, tracking.Point{X: 1.4, Y: 1.4}, got["p2"])
	})
	t.Run("holds the last known position", func(t *testing.T) {
		got := ix.At(12)
		assertPoint(t, tracking.Point{X: 7, Y: 7}, got["p4"])
		assertPoint(t, tracking.Point{X: 3, Y: 4}, got["p5"])
	})
	t.Run("omits entities before their first sample", func(t *testing.T) {
		got := ix.At(5)
		assert.NotContains(t, got, "p5")
		assert.Len(t, got, 3)
	})
	t.Run("clamps to the roster range", func(t *testing.T) {
		got := ix.At(-4)
		assertPoint(t, tracking.Point{X: 0, Y: 0}, got["p1"])
		assert.NotContains(t, got, "p5")

		got = ix.At(99)
		require.Len(t, got, 4)
		assertPoint(t, tracking.Point{X: 100, Y: 200}, got["p1"])
		assertPoint(t, tracking.Point{X: 3, Y: 3}, got["p2"])
	})
}

func TestIndex_HoldLastMatchesEntityScan(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	raw := map[string][]tracking.Sample{}
	var samples []tracking.Sample
	for _, id := range []string{"p1", "p2", "p3"} {
		for f := int64(0); f < 40; f++ {
			if rng.Float64() < 0.7 {
				continue
			}
			s := testutil.At(id, f, rng.Float64()*105, rng.Float64()*68)
			raw[id] = append(raw[id], s)
			samples = append(samples, s)
		}
	}
	ix := NewIndex(testutil.Roster(t, "home", samples...), HoldLast)
	first, last := ix.frames[0], ix.frames[len(ix.frames)-1]

	for i := 0; i < 300; i++ {
		f := rng.Float64()*50 - 5
		q := min(max(f, first), last)
		got := ix.At(f)
		for id, ss := range raw {
			if q < float64(ss[0].FrameID) {
				assert.NotContains(t, got, id, "%s at %v", id, f)
				continue
			}
			want := ss[len(ss)-1].Position
			for j := 0; j+1 < len(ss); j++ {
				a, b := float64(ss[j].FrameID), float64(ss[j+1].FrameID)
				if a <= q && q < b {
					want = ss[j].Position.Lerp(ss[j+1].Position, (q-a)/(b-a))
					break
				}
			}
			require.Contains(t, got, id, "%s at %v", id, f)
			assertPoint(t, want, got[id])
		}
	}
}

func TestIndex_Empty(t *testing.T) {
	t.Parallel()

	ix := NewIndex(tracking.Roster{}, Intersect)
	assert.Equal(t, 0, ix.Len())

	got := ix.At(3)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, _, _, ok := ix.Bracket(3)
	assert.False(t, ok)
}

func TestIndex_NaNFrame(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "home", testutil.At("p1", 0, 1, 1))
	ix := NewIndex(r, Intersect)

	_, _, _, ok := ix.Bracket(math.NaN())
	assert.False(t, ok)
	assert.Empty(t, ix.At(math.NaN()))
}

func TestIndex_Bracket(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "home",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 4, 0, 0),
		testutil.At("p2", 10, 0, 0),
	)
	ix := NewIndex(r, Intersect)
	assert.Equal(t, []float64{0, 4, 10}, ix.Frames())
	assert.Equal(t, "home", ix.Group())
	assert.Equal(t, []string{"p1", "p2"}, ix.Entities())

	tests := []struct {
		f        float64
		lo, hi   int
		wantFrac float64
	}{
		{-1, 0, 0, 0},
		{0, 0, 0, 0},
		{2, 0, 1, 0.5},
		{4, 1, 1, 0},
		{7, 1, 2, 0.5},
		{10, 2, 2, 0},
		{11, 2, 2, 0},
	}
	for _, tt := range tests {
		lo, hi, frac, ok := ix.Bracket(tt.f)
		require.True(t, ok)
		assert.Equal(t, tt.lo, lo, "lo at %v", tt.f)
		assert.Equal(t, tt.hi, hi, "hi at %v", tt.f)
		assert.InDelta(t, tt.wantFrac, frac, 1e-12, "frac at %v", tt.f)
	}
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	var samples []tracking.Sample
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		for f := int64(0); f < 60; f++ {
			if rng.Float64() < 0.4 {
				continue
			}
			samples = append(samples, testutil.At(id, f, rng.Float64()*105, rng.Float64()*68))
		}
	}
	ix := NewIndex(testutil.Roster(t, "home", samples...), Intersect)

	for i := 0; i < 500; i++ {
		f := rng.Float64()*70 - 5
		want := linearAt(ix.frames, ix.positions, f)
		got := ix.At(f)
		require.Len(t, got, len(want), "entity count at %v", f)
		for id, p := range want {
			require.Contains(t, got, id)
			assertPoint(t, p, got[id])
		}
	}
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	r := testutil.Roster(t, "home",
		testutil.At("p1", 0, 0, 0),
		testutil.At("p1", 10, 100, 100),
	)
	ix := NewIndex(r, Intersect)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := ix.At(5)
				if got["p1"].X != 50 {
					t.Errorf("unexpected position %v", got["p1"])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("hold_last")
	require.NoError(t, err)
	assert.Equal(t, HoldLast, p)
	assert.Equal(t, "hold_last", p.String())

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Intersect, p)

	_, err = ParsePolicy("bogus")
	assert.Error(t, err)
	assert.Equal(t, "Policy(9)", Policy(9).String())
}
