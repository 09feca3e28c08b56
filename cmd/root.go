package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matchpulse/marketintel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "marketintel",
	Short: "Football betting market intelligence",
	Long:  "Converts bookmaker 1X2 odds into implied probabilities, adjusts them for team news, ranks market-vs-model discrepancies, and validates stored predictions against real results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
