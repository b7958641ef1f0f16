package playback

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/pitch.replay/internal/monitoring"
	"github.com/banshee-data/pitch.replay/internal/timeutil"
)

// FallbackDuration is used when a window's real duration is zero or
// negative.
const FallbackDuration = 10 * time.Second

// ErrClockStopped is returned when a stopped clock is queried or paused.
var ErrClockStopped = errors.New("playback clock is stopped")

// Status is the clock's state.
type Status int

const (
	Stopped Status = iota
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a point-in-time view of a clock.
type State struct {
	Status      Status
	Frame       int // -1 while stopped
	TotalFrames int
	Duration    time.Duration
	Elapsed     time.Duration
	Loop        bool
	// Finished reports that non-looping playback has reached the last
	// frame. The status stays Playing and the frame stays clamped; callers
	// treat Finished as the stop signal. Play restarts a finished clock.
	Finished bool
}

// DurationFor returns the real duration between the first and last
// timestamps (seconds) of a window, or FallbackDuration when that span is
// not positive.
func DurationFor(first, last float64) time.Duration {
	return durationOr(first, last, FallbackDuration)
}

func durationOr(first, last float64, fallback time.Duration) time.Duration {
	span := last - first
	if math.IsNaN(span) || math.IsInf(span, 0) || span <= 0 {
		monitoring.Logf("[playback] window span %.3fs is not positive, using %s", span, fallback)
		return fallback
	}
	return time.Duration(span * float64(time.Second))
}

// clockState holds the transition fields. A published clockState is never
// modified.
type clockState struct {
	status      Status
	start       time.Time
	pauseOffset time.Duration
	pausedAt    time.Time
}

// Clock converts elapsed wall time into a frame index in [0, totalFrames).
type Clock struct {
	clock       timeutil.Clock
	totalFrames int
	duration    time.Duration
	loop        bool

	mu    sync.Mutex // serialises transitions
	state atomic.Pointer[clockState]
}

// NewClock returns a stopped clock over totalFrames frames played across
// duration. A non-positive duration is replaced by FallbackDuration.
func NewClock(c timeutil.Clock, totalFrames int, duration time.Duration, loop bool) *Clock {
	if duration <= 0 {
		duration = FallbackDuration
	}
	if totalFrames < 0 {
		totalFrames = 0
	}
	cl := &Clock{
		clock:       c,
		totalFrames: totalFrames,
		duration:    duration,
		loop:        loop,
	}
	cl.state.Store(&clockState{status: Stopped})
	return cl
}

// TotalFrames returns the number of frames the clock spans.
func (c *Clock) TotalFrames() int { return c.totalFrames }

// Duration returns the real time one pass over all frames takes.
func (c *Clock) Duration() time.Duration { return c.duration }

// Start begins playback from frame zero.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

// Restart is Start from any state.
func (c *Clock) Restart() { c.Start() }

// Play starts a stopped clock, resumes a paused one and restarts one whose
// non-looping playback has finished.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playLocked()
}

// Pause freezes the current frame. Pausing a paused clock does nothing.
func (c *Clock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseLocked()
}

// Resume continues from the paused frame. Resuming a playing clock does
// nothing.
func (c *Clock) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeLocked()
}

// Toggle pauses a playing clock and otherwise behaves like Play.
func (c *Clock) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load().status == Playing {
		_ = c.pauseLocked()
		return
	}
	c.playLocked()
}

func (c *Clock) startLocked() {
	c.state.Store(&clockState{status: Playing, start: c.clock.Now()})
}

func (c *Clock) playLocked() {
	cur := c.state.Load()
	if cur.status == Stopped {
		c.startLocked()
		return
	}
	if _, finished := c.frameAt(c.elapsed(cur)); finished {
		c.startLocked()
		return
	}
	_ = c.resumeLocked()
}

func (c *Clock) pauseLocked() error {
	cur := c.state.Load()
	switch cur.status {
	case Stopped:
		return fmt.Errorf("pause: %w", ErrClockStopped)
	case Paused:
		return nil
	}
	next := *cur
	next.status = Paused
	next.pausedAt = c.clock.Now()
	c.state.Store(&next)
	return nil
}

func (c *Clock) resumeLocked() error {
	cur := c.state.Load()
	switch cur.status {
	case Stopped:
		return fmt.Errorf("resume: %w", ErrClockStopped)
	case Playing:
		return nil
	}
	next := *cur
	next.status = Playing
	next.pauseOffset += c.clock.Now().Sub(cur.pausedAt)
	next.pausedAt = time.Time{}
	c.state.Store(&next)
	return nil
}

// Status returns the current status.
func (c *Clock) Status() Status { return c.state.Load().status }

// CurrentFrame returns the frame index for the current wall time. It fails
// with ErrClockStopped before Start.
func (c *Clock) CurrentFrame() (int, error) {
	st := c.State()
	if st.Status == Stopped {
		return 0, fmt.Errorf("current frame: %w", ErrClockStopped)
	}
	return st.Frame, nil
}

// State returns a snapshot of the clock at the current wall time.
func (c *Clock) State() State {
	cur := c.state.Load()
	out := State{
		Status:      cur.status,
		Frame:       -1,
		TotalFrames: c.totalFrames,
		Duration:    c.duration,
		Loop:        c.loop,
	}
	if cur.status == Stopped {
		return out
	}

	out.Elapsed = c.elapsed(cur)
	out.Frame, out.Finished = c.frameAt(out.Elapsed)
	return out
}

// elapsed returns the playing time of a started state, excluding pauses.
func (c *Clock) elapsed(cur *clockState) time.Duration {
	now := c.clock.Now()
	if cur.status == Paused {
		now = cur.pausedAt
	}
	return max(now.Sub(cur.start)-cur.pauseOffset, 0)
}

func (c *Clock) frameAt(elapsed time.Duration) (frame int, finished bool) {
	if c.totalFrames == 0 {
		return 0, !c.loop
	}

	var progress float64
	if c.loop {
		progress = float64(elapsed%c.duration) / float64(c.duration)
	} else {
		progress = float64(elapsed) / float64(c.duration)
		if progress >= 1 {
			return c.totalFrames - 1, true
		}
	}

	frame = int(math.Floor(progress * float64(c.totalFrames)))
	return min(max(frame, 0), c.totalFrames-1), false
}
