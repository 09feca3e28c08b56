package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matchpulse/marketintel/internal/pipeline"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List upcoming matches with odds",
	Long:  "Lists upcoming matches that have usable 1X2 odds, with market-implied probabilities and the bookmaker overround.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "matches")
		if err != nil {
			return err
		}
		defer env.Close()

		matches, err := env.upcomingOdds(ctx)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No upcoming matches with odds found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KICKOFF\tHOME\tAWAY\tODDS (H/D/A)\tIMPLIED (H/D/A)\tOVERROUND")
		for _, m := range matches {
			implied, err := pipeline.NormalizeOdds(m.Odds)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f/%.2f/%.2f\t%.3f/%.3f/%.3f\t%.4f\n",
				m.KickoffUTC.Format("2006-01-02 15:04"),
				m.HomeTeam, m.AwayTeam,
				m.Odds.HomeWin, m.Odds.Draw, m.Odds.AwayWin,
				implied.Home, implied.Draw, implied.Away,
				implied.Overround,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
}
