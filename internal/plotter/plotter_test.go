package plotter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitch.replay/internal/scene"
	"github.com/banshee-data/pitch.replay/internal/testutil"
	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/tracking/resample"
)

func assertPNG(t *testing.T, file string) {
	t.Helper()
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, ".png", filepath.Ext(file))
}

func TestTrajectoryAndComponents(t *testing.T) {
	t.Parallel()
	raw := testutil.Track(t, tracking.BallID,
		testutil.At(tracking.BallID, 0, 0, 0),
		testutil.At(tracking.BallID, 3, 500, 200),
		testutil.At(tracking.BallID, 5, 900, 250),
		testutil.At(tracking.BallID, 9, 1000, 900),
	)
	rs, err := resample.Resample(raw, 8)
	require.NoError(t, err)

	p := New(filepath.Join(t.TempDir(), "plots"), 100)

	file, err := p.Trajectory("w1", raw, rs)
	require.NoError(t, err)
	assertPNG(t, file)

	files, err := p.Components("w1", raw, rs)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assertPNG(t, f)
	}
}

func TestTrajectory_Empty(t *testing.T) {
	t.Parallel()
	p := New(t.TempDir(), 100)

	_, err := p.Trajectory("w1", tracking.Track{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	_, err = p.Components("w1", tracking.Track{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTrack)
}

func TestScene(t *testing.T) {
	t.Parallel()
	p := New(t.TempDir(), 100)

	s := scene.Scene{
		Index: 12,
		Ball:  tracking.Point{X: 52.5, Y: 34},
		Home:  map[string]tracking.Point{"h1": {X: 40, Y: 30}, "h2": {X: 45, Y: 20}},
		Away:  map[string]tracking.Point{},
	}
	file, err := p.Scene("w1", s)
	require.NoError(t, err)
	assertPNG(t, file)
	assert.Contains(t, file, "w1_frame_000012.png")
}

func TestScene_SanitisesName(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := New(dir, 100)

	file, err := p.Scene("../match 7", scene.Placeholder(3))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "match_7_frame_000003.png"), file)
	assertPNG(t, file)
}
