package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Import telemetry rows (match_id,period,frame_id,timestamp,entity_id,team_id,x,y)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			start := time.Now()
			n, err := st.ImportCSV(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			a.logger.Info("imported samples",
				zap.String("file", args[0]),
				zap.Int("rows", n),
				zap.Duration("took", time.Since(start)))
			return nil
		},
	}
}
