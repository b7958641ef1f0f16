package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or roll back one) database schema migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if down {
				if err := st.MigrateDown(); err != nil {
					return err
				}
			}
			v, dirty, err := st.MigrateVersion()
			if err != nil {
				return err
			}
			a.logger.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}
