package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitch.replay/internal/tracking"
)

func TestAt(t *testing.T) {
	t.Parallel()

	s := At("p1", 50, 1, 2)
	assert.Equal(t, int64(50), s.FrameID)
	assert.InDelta(t, 2.0, s.Timestamp, 1e-12)
	assert.Equal(t, tracking.Point{X: 1, Y: 2}, s.Position)
}

func TestRoster_SetsGroup(t *testing.T) {
	t.Parallel()

	r := Roster(t, "away", At("p1", 0, 0, 0), At("p2", 0, 1, 1))
	require.Equal(t, 2, r.Len())
	p1, ok := r.Track("p1")
	require.True(t, ok)
	assert.Equal(t, "away", p1.At(0).Group)
}

func TestLinearBall(t *testing.T) {
	t.Parallel()

	ball := LinearBall(t, 5, 10)
	require.Equal(t, 5, ball.Len())
	assert.Equal(t, tracking.Point{X: 40, Y: 40}, ball.At(4).Position)

	w := Window(ball, tracking.Roster{}, tracking.Roster{})
	assert.Equal(t, "match-1", w.MatchID)
	assert.Equal(t, 5, w.Ball.Len())
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}
