package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/radar/internal/contracts"
)

var sotdCmd = &cobra.Command{
	Use:   "sotd",
	Short: "Show the stock-of-the-day decision trace",
	Long: `Shows the saved stock-of-the-day decision for a date: the pick (or
the reason there was none), the top candidates, and a sample of the
filtered universe.

Example:
  go run ./cmd/radar sotd
  go run ./cmd/radar sotd --date 2026-08-28`,
	RunE: runSotd,
}

func init() {
	rootCmd.AddCommand(sotdCmd)
}

func runSotd(cmd *cobra.Command, args []string) error {
	date, err := runDate()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	decision, err := a.signals.Decision(cmd.Context(), date)
	if err != nil {
		return err
	}
	if decision == nil {
		fmt.Printf("No decision recorded for %s\n", date.Format("2006-01-02"))
		return nil
	}

	printDecision(decision)
	return nil
}

func printDecision(d *contracts.DayDecision) {
	fmt.Printf("=== Stock of the Day %s ===\n\n", d.Date.Format("2006-01-02"))
	if d.HasPick {
		fmt.Printf("Pick:   %s (score %d)\n", d.Ticker, d.Score)
	} else {
		fmt.Println("Pick:   none")
	}
	fmt.Printf("Reason: %s\n", d.Reason)
	fmt.Printf("Universe: %d candidates scored, %d filtered out\n", d.CandidateCount, d.FilteredCount)

	if len(d.TopCandidates) > 0 {
		fmt.Println("\nTop candidates:")
		for _, c := range d.TopCandidates {
			fmt.Printf("  %-6s total %2d (insider %2d, options %2d, social %2d)\n",
				c.Ticker, c.TotalScore, c.InsiderScore, c.OptionsScore, c.SocialScore)
		}
	}
	if len(d.RejectedSamples) > 0 {
		fmt.Println("\nFiltered (sample):")
		for _, r := range d.RejectedSamples {
			fmt.Printf("  %-6s %s\n", r.Ticker, r.Reason)
		}
	}
}
