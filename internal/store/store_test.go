package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitch.replay/internal/tracking"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "replay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.MigrateUp())
	return s
}

func sample(entity, team string, period int, frame int64, x, y float64) tracking.Sample {
	return tracking.Sample{
		FrameID:   frame,
		Timestamp: float64(frame) / 25,
		EntityID:  entity,
		Group:     team,
		Period:    period,
		Position:  tracking.Point{X: x, Y: y},
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	var rows []tracking.Sample
	for f := int64(0); f < 10; f++ {
		rows = append(rows,
			sample(tracking.BallID, "", 1, f, float64(f)*10, 0),
			sample("h1", "TeamA", 1, f, 0, float64(f)),
			sample("a1", "TeamB", 1, f, 5, 5),
		)
	}
	rows = append(rows,
		sample(tracking.BallID, "", 2, 100, 1, 1),
		sample("h2", "TeamA", 2, 100, 2, 2),
	)
	rows[0].Extra = map[string]float64{"speed": 7.5}
	require.NoError(t, s.InsertSamples(context.Background(), "m1", rows))
}

func TestMigrations(t *testing.T) {
	s := setupTestStore(t)

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	// Up again is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, s.MigrateUp())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestMigrateVersion_Fresh(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer s.Close()

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)
}

func TestEnumeration(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)
	ctx := context.Background()

	matches, err := s.Matches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, matches)

	teams, err := s.Teams(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"TeamA", "TeamB"}, teams)

	ents, err := s.Entities(ctx, "m1", "TeamA")
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2"}, ents)

	periods, err := s.Periods(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, periods)
}

func TestLoadTrack(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	tr, err := s.LoadTrack(context.Background(), "m1", tracking.BallID, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, tr.Len())
	assert.Equal(t, tracking.BallID, tr.EntityID())
}

func TestLoadWindow(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	w, err := s.LoadWindow(context.Background(), "m1", 1, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, "m1", w.MatchID)
	assert.Equal(t, 6, w.Ball.Len())
	assert.Equal(t, "TeamA", w.Home.Group())
	assert.Equal(t, "TeamB", w.Away.Group())
	assert.Equal(t, []string{"h1"}, w.Home.EntityIDs())
	assert.Equal(t, []string{"a1"}, w.Away.EntityIDs())

	first, last, ok := w.Ball.FrameSpan()
	require.True(t, ok)
	assert.Equal(t, int64(2), first)
	assert.Equal(t, int64(7), last)
}

func TestLoadWindow_RoundTripsExtra(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	w, err := s.LoadWindow(context.Background(), "m1", 1, 0, 9)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"speed": 7.5}, w.Ball.At(0).Extra)
	assert.Nil(t, w.Ball.At(1).Extra)
}

func TestLoadWindowByTime(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	// 0.08s..0.2s covers frames 2..5 at 25fps
	w, err := s.LoadWindowByTime(context.Background(), "m1", 1, 0.08, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 4, w.Ball.Len())
}

func TestLoadWindow_NoSamples(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	_, err := s.LoadWindow(context.Background(), "m1", 1, 100, 200)
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = s.LoadWindow(context.Background(), "missing", 1, 0, 10)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestInsertSamples_ReplacesDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertSamples(ctx, "m1", []tracking.Sample{
		sample(tracking.BallID, "", 1, 0, 0, 0),
		sample(tracking.BallID, "", 1, 1, 1, 1),
	}))
	require.NoError(t, s.InsertSamples(ctx, "m1", []tracking.Sample{
		sample(tracking.BallID, "", 1, 1, 9, 9),
	}))

	tr, err := s.LoadTrack(ctx, "m1", tracking.BallID, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, tracking.Point{X: 9, Y: 9}, tr.At(1).Position)
}

func TestInsertSamples_RejectsEmptyEntity(t *testing.T) {
	s := setupTestStore(t)

	err := s.InsertSamples(context.Background(), "m1", []tracking.Sample{
		sample(tracking.BallID, "", 1, 0, 0, 0),
		sample("", "TeamA", 1, 0, 0, 0),
	})
	assert.ErrorIs(t, err, tracking.ErrEmptyEntityID)

	matches, err := s.Matches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches, "failed insert must roll back")
}
