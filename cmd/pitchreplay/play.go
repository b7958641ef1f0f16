package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/pitch.replay/internal/playback"
	"github.com/banshee-data/pitch.replay/internal/scene"
	"github.com/banshee-data/pitch.replay/internal/timeutil"
	"github.com/banshee-data/pitch.replay/internal/units"
)

// playOptions drive a headless replay loop.
type playOptions struct {
	displayFPS float64
	runFor     time.Duration // 0 runs until finished or interrupted
	pauseAt    time.Duration // 0 disables
	resumeAt   time.Duration // 0 disables
	logEvery   time.Duration
	speedUnit  string
}

func newPlayCmd(a *app) *cobra.Command {
	var (
		wf   windowFlags
		opts playOptions
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Replay a window headlessly, logging the frame clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !units.IsValidSpeed(opts.speedUnit) {
				return fmt.Errorf("invalid --speed-unit %q, expected one of %v", opts.speedUnit, units.ValidSpeedUnits)
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := wf.load(ctx, cmd, st)
			if err != nil {
				return err
			}

			scfg, err := playback.SessionConfigFrom(a.cfg)
			if err != nil {
				return err
			}
			clk := timeutil.RealClock{}
			sess := playback.NewSession(scfg, clk)
			if err := sess.StartWindow(ctx, w); err != nil {
				return err
			}

			opts.displayFPS = a.cfg.GetDisplayFPS()
			return runPlayback(ctx, sess, clk, opts, a.logger)
		},
	}
	wf.bind(cmd)
	cmd.Flags().DurationVar(&opts.runFor, "for", 0, "stop after this long (0 = until finished or interrupted)")
	cmd.Flags().DurationVar(&opts.pauseAt, "pause-at", 0, "pause playback at this wall-clock offset")
	cmd.Flags().DurationVar(&opts.resumeAt, "resume-at", 0, "resume playback at this wall-clock offset")
	cmd.Flags().DurationVar(&opts.logEvery, "log-every", time.Second, "interval between frame log lines")
	cmd.Flags().StringVar(&opts.speedUnit, "speed-unit", units.KPH, "unit for logged ball speed: mps, mph, kmph, kph")
	return cmd
}

// runPlayback ticks the session at the display rate until ctx is done, the
// run time elapses, or non-looping playback finishes.
func runPlayback(ctx context.Context, sess *playback.Session, clk timeutil.Clock, opts playOptions, logger *zap.Logger) error {
	fps := opts.displayFPS
	if fps <= 0 {
		fps = 60
	}
	ticker := clk.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	start := clk.Now()
	var (
		lastLog     time.Time
		prev        scene.Scene
		prevElapsed time.Duration
		havePrev    bool
	)
	paused, resumed := false, false
	ticks := 0

	logger.Info("playback started",
		zap.String("session", sess.ID()),
		zap.String("match", sess.MatchID()),
		zap.Int("frames", sess.Len()),
		zap.Int("factor", sess.Factor()),
		zap.Float64("display_fps", fps))

	for {
		select {
		case <-ctx.Done():
			logger.Info("playback interrupted", zap.Int("ticks", ticks))
			return nil
		case now := <-ticker.C():
			ticks++
			elapsed := now.Sub(start)

			if opts.pauseAt > 0 && !paused && elapsed >= opts.pauseAt {
				if err := sess.Pause(); err != nil {
					return err
				}
				paused = true
				logger.Info("paused", zap.Duration("at", elapsed))
			}
			if opts.resumeAt > 0 && paused && !resumed && elapsed >= opts.resumeAt {
				if err := sess.Play(); err != nil {
					return err
				}
				resumed = true
				logger.Info("resumed", zap.Duration("at", elapsed))
			}

			sc, err := sess.CurrentScene()
			if err != nil {
				return err
			}
			st, err := sess.State()
			if err != nil {
				return err
			}

			if lastLog.IsZero() || now.Sub(lastLog) >= opts.logEvery {
				lastLog = now
				fields := []zap.Field{
					zap.Int("index", sc.Index),
					zap.Float64("virtual_frame", sc.VirtualFrame),
					zap.Float64("ball_x", sc.Ball.X),
					zap.Float64("ball_y", sc.Ball.Y),
					zap.Int("players", sc.Entities()),
					zap.Stringer("status", st.Status),
				}
				// Speed is only meaningful within one pass of the window.
				if havePrev && sc.Index >= prev.Index && st.Elapsed > prevElapsed {
					mps := units.SpeedMPS(prev.Ball.X, prev.Ball.Y, sc.Ball.X, sc.Ball.Y,
						(st.Elapsed - prevElapsed).Seconds())
					fields = append(fields, zap.Float64("ball_speed", units.ConvertSpeed(mps, opts.speedUnit)),
						zap.String("speed_unit", opts.speedUnit))
				}
				logger.Info("frame", fields...)
				prev, prevElapsed, havePrev = sc, st.Elapsed, true
			}

			if st.Finished {
				logger.Info("playback finished", zap.Int("ticks", ticks))
				return nil
			}
			if opts.runFor > 0 && elapsed >= opts.runFor {
				logger.Info("playback stopped", zap.Duration("after", elapsed), zap.Int("ticks", ticks))
				return nil
			}
		}
	}
}
