package main

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/pitch.replay/internal/config"
	"github.com/banshee-data/pitch.replay/internal/monitoring"
	"github.com/banshee-data/pitch.replay/internal/store"
	"github.com/banshee-data/pitch.replay/internal/tracking"
	"github.com/banshee-data/pitch.replay/internal/units"
)

// app holds state shared by every subcommand.
type app struct {
	dbPath     string
	configPath string
	logLevel   string
	lengthUnit string

	logger *zap.Logger
	cfg    *config.PlaybackConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pitchreplay",
		Short:         "Replay sparse match telemetry as a smooth, wall-clock synchronised stream.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "pitchreplay.db", "path to the SQLite telemetry database")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a playback config JSON file (defaults built in)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.lengthUnit, "units", "", "recorded coordinate unit: cm, m or mm (overrides unit_scale)")

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newMatchesCmd(a),
		newPlotCmd(a),
		newPlayCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	logger, err := monitoring.NewZapLogger(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	monitoring.UseZap(logger)

	if a.configPath == "" {
		a.cfg = config.DefaultPlaybackConfig()
	} else if a.cfg, err = config.LoadPlaybackConfig(a.configPath); err != nil {
		return err
	}

	if a.lengthUnit != "" {
		if !units.IsValidLength(a.lengthUnit) {
			return fmt.Errorf("invalid --units %q, expected one of %v", a.lengthUnit, units.ValidLengthUnits)
		}
		scale := units.PerMeter(a.lengthUnit)
		a.cfg.UnitScale = &scale
	}
	return nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.dbPath)
	if err != nil {
		return nil, err
	}
	if err := st.MigrateUp(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// windowFlags selects a match window.
type windowFlags struct {
	match   string
	period  int
	from    int64
	to      int64
	fromSec float64
	toSec   float64
}

func (w *windowFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&w.match, "match", "", "match id (default: first stored match)")
	f.IntVar(&w.period, "period", 0, "match period (default: first stored period)")
	f.Int64Var(&w.from, "from", 0, "first frame id of the window")
	f.Int64Var(&w.to, "to", math.MaxInt64, "last frame id of the window")
	f.Float64Var(&w.fromSec, "from-sec", 0, "window start in seconds (selects by timestamp)")
	f.Float64Var(&w.toSec, "to-sec", 0, "window end in seconds (selects by timestamp)")
}

func (w *windowFlags) load(ctx context.Context, cmd *cobra.Command, st *store.Store) (tracking.Window, error) {
	match := w.match
	if match == "" {
		matches, err := st.Matches(ctx)
		if err != nil {
			return tracking.Window{}, err
		}
		if len(matches) == 0 {
			return tracking.Window{}, fmt.Errorf("no matches stored, run import first")
		}
		match = matches[0]
	}

	period := w.period
	if !cmd.Flags().Changed("period") {
		periods, err := st.Periods(ctx, match)
		if err != nil {
			return tracking.Window{}, err
		}
		if len(periods) == 0 {
			return tracking.Window{}, fmt.Errorf("match %q: %w", match, store.ErrNoSamples)
		}
		period = periods[0]
	}

	if cmd.Flags().Changed("from-sec") || cmd.Flags().Changed("to-sec") {
		to := w.toSec
		if !cmd.Flags().Changed("to-sec") {
			to = math.MaxFloat64
		}
		return st.LoadWindowByTime(ctx, match, period, w.fromSec, to)
	}
	return st.LoadWindow(ctx, match, period, w.from, w.to)
}
