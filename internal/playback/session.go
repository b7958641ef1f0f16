package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pitch.replay/internal/config"
	"github.com/banshee-data/pitch.replay/internal/monitoring"
	"github.com/banshee-data/pitch.replay/internal/scene"
	"github.com/banshee-data/pitch.replay/internal/timeutil"
	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/tracking/lookup"
	"github.com/banshee-data/pitch.replay/internal/tracking/resample"
)

// ErrNoWindow is returned by Session methods called before StartWindow
// has succeeded.
var ErrNoWindow = errors.New("no playback window started")

// SessionConfig controls how a window is turned into a playable sequence.
type SessionConfig struct {
	UpsampleFactor   int
	TargetFPS        float64 // >0 derives the factor from the window duration
	FallbackDuration time.Duration
	Loop             bool
	UnitScale        float64
	Precompute       bool
	Workers          int
	Policy           lookup.Policy
}

// SessionConfigFrom converts a loaded PlaybackConfig.
func SessionConfigFrom(c *config.PlaybackConfig) (SessionConfig, error) {
	policy, err := lookup.ParsePolicy(c.GetMissingPolicy())
	if err != nil {
		return SessionConfig{}, err
	}
	return SessionConfig{
		UpsampleFactor:   c.GetUpsampleFactor(),
		TargetFPS:        c.GetTargetFPS(),
		FallbackDuration: c.GetFallbackDuration(),
		Loop:             c.GetLoop(),
		UnitScale:        c.GetUnitScale(),
		Precompute:       c.GetPrecompute(),
		Workers:          c.GetWorkers(),
		Policy:           policy,
	}, nil
}

// Factor returns the upsampling factor a session started with c uses for a
// window whose ball track is ball.
func (c SessionConfig) Factor(ball tracking.Track) int {
	if c.TargetFPS <= 0 {
		return c.factor(ball, 0)
	}
	fallback := c.FallbackDuration
	if fallback <= 0 {
		fallback = FallbackDuration
	}
	first, last, _ := ball.TimeSpan()
	return c.factor(ball, durationOr(first, last, fallback))
}

func (c SessionConfig) factor(ball tracking.Track, duration time.Duration) int {
	if c.TargetFPS <= 0 {
		return c.UpsampleFactor
	}
	return resample.FactorFor(duration.Seconds(), c.TargetFPS, ball.Len())
}

// active is everything a started window needs. It is never modified after
// being published.
type active struct {
	id       string
	matchID  string
	factor   int
	method   resample.Method
	composer *scene.Composer
	scenes   []scene.Scene // nil unless precomputed
	clock    *Clock
}

// Session drives playback of one window at a time.
type Session struct {
	cfg   SessionConfig
	clock timeutil.Clock

	startMu sync.Mutex // one StartWindow at a time
	cur     atomic.Pointer[active]
}

// NewSession returns a session with no window.
func NewSession(cfg SessionConfig, clock timeutil.Clock) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.FallbackDuration <= 0 {
		cfg.FallbackDuration = FallbackDuration
	}
	return &Session{cfg: cfg, clock: clock}
}

// StartWindow resamples w, builds its lookup indexes and starts playing it
// from frame zero. On failure the previously started window, if any, keeps
// playing and the error is returned.
func (s *Session) StartWindow(ctx context.Context, w tracking.Window) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if err := w.Ball.Interpolable(); err != nil {
		monitoring.Logf("[playback] declining window for match %q: %v", w.MatchID, err)
		return fmt.Errorf("start window: %w", err)
	}

	first, last, _ := w.Ball.TimeSpan()
	duration := durationOr(first, last, s.cfg.FallbackDuration)

	k := s.cfg.factor(w.Ball, duration)
	ball, err := resample.Resample(w.Ball, k)
	if err != nil {
		monitoring.Logf("[playback] declining window for match %q: %v", w.MatchID, err)
		return fmt.Errorf("start window: %w", err)
	}

	composer := scene.NewComposer(ball,
		lookup.NewIndex(w.Home, s.cfg.Policy),
		lookup.NewIndex(w.Away, s.cfg.Policy),
		s.cfg.UnitScale)

	var scenes []scene.Scene
	if s.cfg.Precompute {
		scenes, err = scene.Precompute(ctx, composer, s.cfg.Workers)
		if err != nil {
			return fmt.Errorf("start window: %w", err)
		}
	}

	next := &active{
		id:       uuid.NewString(),
		matchID:  w.MatchID,
		factor:   k,
		method:   ball.Method,
		composer: composer,
		scenes:   scenes,
		clock:    NewClock(s.clock, composer.Len(), duration, s.cfg.Loop),
	}
	next.clock.Start()
	s.cur.Store(next)

	monitoring.Logf("[playback] session %s: match %q, %d samples x%d = %d frames over %s (%s)",
		next.id, w.MatchID, w.Ball.Len(), k, composer.Len(), duration, ball.Method)
	return nil
}

func (s *Session) window() (*active, error) {
	a := s.cur.Load()
	if a == nil {
		return nil, ErrNoWindow
	}
	return a, nil
}

// ID returns the id of the current window, or "" before StartWindow.
func (s *Session) ID() string {
	if a := s.cur.Load(); a != nil {
		return a.id
	}
	return ""
}

// MatchID returns the match of the current window.
func (s *Session) MatchID() string {
	if a := s.cur.Load(); a != nil {
		return a.matchID
	}
	return ""
}

// Factor returns the upsample factor chosen for the current window.
func (s *Session) Factor() int {
	if a := s.cur.Load(); a != nil {
		return a.factor
	}
	return 0
}

// Play starts a stopped clock, resumes a paused one and restarts finished
// non-looping playback.
func (s *Session) Play() error {
	a, err := s.window()
	if err != nil {
		return err
	}
	a.clock.Play()
	return nil
}

// Pause freezes playback on the current frame.
func (s *Session) Pause() error {
	a, err := s.window()
	if err != nil {
		return err
	}
	return a.clock.Pause()
}

// Restart plays the current window from frame zero.
func (s *Session) Restart() error {
	a, err := s.window()
	if err != nil {
		return err
	}
	a.clock.Restart()
	return nil
}

// Toggle flips between playing and paused.
func (s *Session) Toggle() error {
	a, err := s.window()
	if err != nil {
		return err
	}
	a.clock.Toggle()
	return nil
}

// State returns the clock state of the current window.
func (s *Session) State() (State, error) {
	a, err := s.window()
	if err != nil {
		return State{}, err
	}
	return a.clock.State(), nil
}

// Len returns the number of frames in the current window.
func (s *Session) Len() int {
	if a := s.cur.Load(); a != nil {
		return a.composer.Len()
	}
	return 0
}

// SceneAt returns frame i of the current window.
func (s *Session) SceneAt(i int) (scene.Scene, error) {
	a, err := s.window()
	if err != nil {
		return scene.Scene{}, err
	}
	return a.sceneAt(i)
}

// CurrentScene returns the scene for the current wall time.
func (s *Session) CurrentScene() (scene.Scene, error) {
	a, err := s.window()
	if err != nil {
		return scene.Scene{}, err
	}
	i, err := a.clock.CurrentFrame()
	if err != nil {
		return scene.Scene{}, err
	}
	return a.sceneAt(i)
}

func (a *active) sceneAt(i int) (scene.Scene, error) {
	if a.scenes != nil {
		if i < 0 || i >= len(a.scenes) {
			return scene.Scene{}, fmt.Errorf("frame %d of %d: %w", i, len(a.scenes), scene.ErrFrameOutOfRange)
		}
		return a.scenes[i], nil
	}
	return a.composer.SceneAt(i)
}
