// Package commands is the radar CLI: daily scoring, the stock-of-the-day
// trace, and the paper-trading portfolio.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	dateFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Radar - US event signal scoring and paper trading",
	Long: `Radar Unified CLI

Scores per-ticker insider, options, and social activity into daily trade
signals, picks a stock of the day, and tracks positions in a paper
portfolio.

Examples:
  go run ./cmd/radar score run
  go run ./cmd/radar sotd
  go run ./cmd/radar portfolio status
  go run ./cmd/radar scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default from STRATEGY_FILE)")
	rootCmd.PersistentFlags().StringVar(&dateFlag, "date", "", "date (YYYY-MM-DD, default today)")
}
