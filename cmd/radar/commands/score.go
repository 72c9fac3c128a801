package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/radar/internal/contracts"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Daily signal scoring",
	Long: `Runs or inspects the daily scoring pipeline.

Example:
  go run ./cmd/radar score run
  go run ./cmd/radar score run --date 2026-08-28
  go run ./cmd/radar score show --action TRADE`,
}

var (
	scoreRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Score the day's activity universe",
		RunE:  runScoreRun,
	}

	scoreShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show saved signals for a date",
		RunE:  runScoreShow,
	}

	scoreAction string
	scoreLimit  int
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreRunCmd)
	scoreCmd.AddCommand(scoreShowCmd)

	scoreShowCmd.Flags().StringVar(&scoreAction, "action", "", "filter by action: TRADE, WATCH, NONE")
	scoreShowCmd.Flags().IntVar(&scoreLimit, "limit", 20, "max signals to show")
}

func runScoreRun(cmd *cobra.Command, args []string) error {
	date, err := runDate()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.combiner.RunDaily(cmd.Context(), date, a.filter, a.selector, a.signals)
	if err != nil {
		return err
	}

	fmt.Printf("=== Scoring Run %s ===\n\n", date.Format("2006-01-02"))
	fmt.Printf("Scored:   %d tickers\n", len(result.Signals))
	fmt.Printf("Rejected: %d tickers (quality filter)\n\n", len(result.Rejected))

	for i, s := range result.Signals {
		if i >= 10 {
			fmt.Printf("  ... and %d more\n", len(result.Signals)-10)
			break
		}
		fmt.Printf("  %-6s %3d  %-5s %s\n", s.Ticker, s.TotalScore, s.Action, s.Notes)
	}

	fmt.Println()
	printDecision(result.Decision)
	return nil
}

func runScoreShow(cmd *cobra.Command, args []string) error {
	date, err := runDate()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	signals, err := a.signals.SignalsForDate(cmd.Context(), date, contracts.Action(strings.ToUpper(scoreAction)), scoreLimit)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		fmt.Printf("No signals for %s\n", date.Format("2006-01-02"))
		return nil
	}

	fmt.Printf("=== Signals %s ===\n\n", date.Format("2006-01-02"))
	for _, s := range signals {
		fmt.Printf("%-6s total %2d (insider %2d, options %2d, social %2d)  %s/%s %s\n",
			s.Ticker, s.TotalScore, s.Insider.Score, s.Options.Score, s.Social.Score,
			s.Action, s.Tier, s.PositionSize)
		for _, line := range s.Insider.Breakdown.Lines() {
			fmt.Printf("    insider %s\n", line)
		}
		for _, line := range s.Options.Breakdown.Lines() {
			fmt.Printf("    options %s\n", line)
		}
		for _, line := range s.Social.Breakdown.Lines() {
			fmt.Printf("    social  %s\n", line)
		}
	}
	return nil
}
