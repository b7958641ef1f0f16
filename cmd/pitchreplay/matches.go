package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMatchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "matches",
		Short: "List stored matches with their teams and periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			matches, err := st.Matches(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range matches {
				teams, err := st.Teams(ctx, m)
				if err != nil {
					return err
				}
				periods, err := st.Periods(ctx, m)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\tteams=%s\tperiods=%v\n", m, strings.Join(teams, ","), periods)
			}
			return nil
		},
	}
}
