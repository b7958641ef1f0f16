// Package testutil provides shared test fixtures for tracks, rosters and
// windows.
//
// This package centralises fixture construction so tests in the lookup,
// scene and playback packages describe telemetry compactly.
package testutil

import (
	"testing"

	"github.com/banshee-data/pitch.replay/internal/tracking"
)

// FramesPerSecond is the recording rate fixtures assume when deriving
// timestamps from frame ids.
const FramesPerSecond = 25.0

// At returns a sample at frame with position (x, y). The timestamp is
// derived from the frame id at FramesPerSecond.
func At(entity string, frame int64, x, y float64) tracking.Sample {
	return tracking.Sample{
		FrameID:   frame,
		Timestamp: float64(frame) / FramesPerSecond,
		EntityID:  entity,
		Position:  tracking.Point{X: x, Y: y},
	}
}

// Track builds a track or fails the test.
func Track(t testing.TB, entity string, samples ...tracking.Sample) tracking.Track {
	t.Helper()
	tr, err := tracking.NewTrack(entity, samples)
	if err != nil {
		t.Fatalf("building track %q: %v", entity, err)
	}
	return tr
}

// Roster builds a roster or fails the test.
func Roster(t testing.TB, group string, samples ...tracking.Sample) tracking.Roster {
	t.Helper()
	grouped := make([]tracking.Sample, len(samples))
	for i, s := range samples {
		s.Group = group
		grouped[i] = s
	}
	r, err := tracking.NewRoster(group, grouped)
	if err != nil {
		t.Fatalf("building roster %q: %v", group, err)
	}
	return r
}

// LinearBall returns a ball track of n samples one frame apart moving
// diagonally by step units per frame, starting at frame 0.
func LinearBall(t testing.TB, n int, step float64) tracking.Track {
	t.Helper()
	pts := make([]tracking.Sample, n)
	for i := range pts {
		pts[i] = At(tracking.BallID, int64(i), float64(i)*step, float64(i)*step)
	}
	return Track(t, tracking.BallID, pts...)
}

// Window assembles a window from a ball track and two rosters.
func Window(ball tracking.Track, home, away tracking.Roster) tracking.Window {
	return tracking.Window{
		MatchID: "match-1",
		Ball:    ball,
		Home:    home,
		Away:    away,
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
