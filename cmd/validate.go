package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matchpulse/marketintel/internal/backtest"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate pending predictions against real results",
	Long:  "Fetches recently completed fixtures, records final results against pending predictions, and prints the updated validation report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		validator := env.newValidator()

		summary, err := validator.ValidatePending(ctx)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)

		report, err := validator.Report(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report)
		return nil
	},
}

func printSummary(cmd *cobra.Command, summary backtest.Summary) {
	fmt.Fprintf(cmd.OutOrStdout(), "Updated: %d\n", summary.Updated)
	fmt.Fprintf(cmd.OutOrStdout(), "Still pending: %d\n", summary.StillPending)
	if summary.NotFound > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Not found: %d\n", summary.NotFound)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
