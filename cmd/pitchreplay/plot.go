package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/pitch.replay/internal/playback"
	"github.com/banshee-data/pitch.replay/internal/plotter"
	"github.com/banshee-data/pitch.replay/internal/timeutil"
	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/tracking/resample"
)

func newPlotCmd(a *app) *cobra.Command {
	var (
		wf     windowFlags
		entity string
		outDir string
		frame  int
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot recorded vs resampled trajectories for a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			w, err := wf.load(ctx, cmd, st)
			if err != nil {
				return err
			}

			raw, err := pickTrack(w, entity)
			if err != nil {
				return err
			}
			scfg, err := playback.SessionConfigFrom(a.cfg)
			if err != nil {
				return err
			}
			rs, err := resample.Resample(raw, scfg.Factor(w.Ball))
			if err != nil {
				return err
			}

			p := plotter.New(outDir, a.cfg.GetUnitScale())
			name := fmt.Sprintf("%s_p%d", w.MatchID, w.Ball.At(0).Period)
			files := []string{}
			f, err := p.Trajectory(name, raw, rs)
			if err != nil {
				return err
			}
			files = append(files, f)
			comp, err := p.Components(name, raw, rs)
			if err != nil {
				return err
			}
			files = append(files, comp...)

			if frame >= 0 {
				sess := playback.NewSession(scfg, timeutil.RealClock{})
				if err := sess.StartWindow(ctx, w); err != nil {
					return err
				}
				sc, err := sess.SceneAt(frame)
				if err != nil {
					return err
				}
				f, err := p.Scene(name, sc)
				if err != nil {
					return err
				}
				files = append(files, f)
			}

			a.logger.Info("plots written",
				zap.String("entity", raw.EntityID()),
				zap.Stringer("method", rs.Method),
				zap.Int("samples", raw.Len()),
				zap.Int("frames", rs.Len()),
				zap.Strings("files", files))
			return nil
		},
	}
	wf.bind(cmd)
	cmd.Flags().StringVar(&entity, "entity", tracking.BallID, "entity whose trajectory to plot")
	cmd.Flags().StringVar(&outDir, "out", "plots", "output directory")
	cmd.Flags().IntVar(&frame, "scene-frame", -1, "also plot the composed scene at this frame index")
	return cmd
}

// pickTrack returns the ball or the named roster entity from w.
func pickTrack(w tracking.Window, entity string) (tracking.Track, error) {
	if entity == tracking.BallID {
		return w.Ball, nil
	}
	if tr, ok := w.Home.Track(entity); ok {
		return tr, nil
	}
	if tr, ok := w.Away.Track(entity); ok {
		return tr, nil
	}
	return tracking.Track{}, fmt.Errorf("entity %q not in window", entity)
}
