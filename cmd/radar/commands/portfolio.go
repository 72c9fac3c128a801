package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/radar/internal/contracts"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Paper-trading portfolio",
	Long: `Manages the paper-trading portfolio.

Example:
  go run ./cmd/radar portfolio status
  go run ./cmd/radar portfolio enter AAPL --price 182.50 --stop 171.20 --target 200.75
  go run ./cmd/radar portfolio exit 3 --price 195.00
  go run ./cmd/radar portfolio check
  go run ./cmd/radar portfolio history
  go run ./cmd/radar portfolio performance`,
}

var (
	portfolioStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show cash, open positions, and P&L",
		RunE:  runPortfolioStatus,
	}

	portfolioEnterCmd = &cobra.Command{
		Use:   "enter TICKER",
		Short: "Open a paper position with risk-based sizing",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioEnter,
	}

	portfolioExitCmd = &cobra.Command{
		Use:   "exit TRADE_ID",
		Short: "Close an open paper position",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolioExit,
	}

	portfolioCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Run the stop/target/trailing sweep against latest prices",
		RunE:  runPortfolioCheck,
	}

	portfolioHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "Show closed trades",
		RunE:  runPortfolioHistory,
	}

	portfolioPerfCmd = &cobra.Command{
		Use:   "performance",
		Short: "Show aggregate trade performance",
		RunE:  runPortfolioPerformance,
	}

	enterPrice   float64
	enterStop    float64
	enterTarget  float64
	enterShares  int64
	enterNotes   string
	exitPrice    float64
	historyLimit int
)

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioStatusCmd)
	portfolioCmd.AddCommand(portfolioEnterCmd)
	portfolioCmd.AddCommand(portfolioExitCmd)
	portfolioCmd.AddCommand(portfolioCheckCmd)
	portfolioCmd.AddCommand(portfolioHistoryCmd)
	portfolioCmd.AddCommand(portfolioPerfCmd)

	portfolioEnterCmd.Flags().Float64Var(&enterPrice, "price", 0, "entry price (required)")
	portfolioEnterCmd.Flags().Float64Var(&enterStop, "stop", 0, "initial stop price (required)")
	portfolioEnterCmd.Flags().Float64Var(&enterTarget, "target", 0, "target price (required)")
	portfolioEnterCmd.Flags().Int64Var(&enterShares, "shares", 0, "share count (default: risk-based sizing)")
	portfolioEnterCmd.Flags().StringVar(&enterNotes, "notes", "", "entry notes")
	_ = portfolioEnterCmd.MarkFlagRequired("price")
	_ = portfolioEnterCmd.MarkFlagRequired("stop")
	_ = portfolioEnterCmd.MarkFlagRequired("target")

	portfolioExitCmd.Flags().Float64Var(&exitPrice, "price", 0, "exit price (required)")
	_ = portfolioExitCmd.MarkFlagRequired("price")

	portfolioHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "max trades to show")
}

func runPortfolioStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	prices, err := latestPrices(cmd, a)
	if err != nil {
		return err
	}

	status, err := a.engine.PortfolioStatus(ctx, prices)
	if err != nil {
		return err
	}

	fmt.Println("=== Paper Portfolio ===")
	fmt.Println()
	fmt.Printf("Cash:            $%.2f\n", status.Cash)
	fmt.Printf("Positions value: $%.2f\n", status.PositionsValue)
	fmt.Printf("Total value:     $%.2f\n", status.TotalValue)
	fmt.Printf("Total P&L:       $%.2f (%.2f%%)\n", status.TotalPnL, status.TotalPnLPct)
	fmt.Printf("Open positions:  %d (%d slots free)\n", status.NumPositions, status.AvailableSlots)

	if len(status.OpenPositions) > 0 {
		fmt.Println()
		for _, p := range status.OpenPositions {
			fmt.Printf("  #%d %-6s %d @ $%.2f  now $%.2f  stop $%.2f (%s)  P&L $%.2f (%.2f%%)\n",
				p.ID, p.Ticker, p.Shares, p.EntryPrice, p.CurrentPrice,
				p.CurrentStop, p.StopType, p.UnrealizedPnL, p.UnrealizedPnLPct)
		}
	}
	return nil
}

func runPortfolioEnter(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(args[0])

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	shares := enterShares
	if shares == 0 {
		status, err := a.engine.PortfolioStatus(ctx, nil)
		if err != nil {
			return err
		}
		shares, err = a.engine.CalculatePositionSize(enterPrice, enterStop, status.TotalValue)
		if err != nil {
			return err
		}
		if shares < 1 {
			return fmt.Errorf("risk-based sizing yields zero shares at $%.2f entry / $%.2f stop", enterPrice, enterStop)
		}
	}

	id, err := a.engine.EnterTrade(ctx, ticker, enterPrice, shares, enterStop, enterTarget, "manual", enterNotes)
	if err != nil {
		return err
	}

	fmt.Printf("Entered trade #%d: %s %d @ $%.2f (stop $%.2f, target $%.2f)\n",
		id, ticker, shares, enterPrice, enterStop, enterTarget)
	return nil
}

func runPortfolioExit(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid trade id %q", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.ExitTrade(cmd.Context(), id, exitPrice, contracts.ExitManual)
	if err != nil {
		return err
	}

	fmt.Printf("Closed trade #%d: %s @ $%.2f  return %.2f%% ($%.2f, %.2fR) over %d days\n",
		result.TradeID, result.Ticker, result.ExitPrice,
		result.ReturnPct, result.ReturnDollars, result.RMultiple, result.DaysHeld)
	return nil
}

func runPortfolioCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	prices, err := latestPrices(cmd, a)
	if err != nil {
		return err
	}

	triggered, err := a.engine.CheckStopsAndTargets(ctx, prices)
	if err != nil {
		return err
	}

	if len(triggered) == 0 {
		fmt.Println("No exits triggered")
		return nil
	}
	for _, t := range triggered {
		fmt.Printf("Exit #%d %s (%s) @ $%.2f  return %.2f%%\n",
			t.TradeID, t.Ticker, t.Reason, t.ExitPrice, t.ReturnPct)
	}
	return nil
}

func runPortfolioHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	trades, err := a.engine.ClosedTrades(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("No closed trades")
		return nil
	}

	fmt.Println("=== Trade History ===")
	fmt.Println()
	for _, t := range trades {
		exit := 0.0
		if t.ExitPrice != nil {
			exit = *t.ExitPrice
		}
		fmt.Printf("  #%d %-6s %d @ $%.2f -> $%.2f (%s)  %.2f%% ($%.2f, %.2fR) %dd\n",
			t.ID, t.Ticker, t.Shares, t.EntryPrice, exit, t.ExitReason,
			t.ReturnPct, t.ReturnDollars, t.RMultiple, t.DaysHeld)
	}
	return nil
}

func runPortfolioPerformance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.engine.PerformanceMetrics(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("=== Performance ===")
	fmt.Println()
	fmt.Printf("Trades:        %d (%d wins, %d losses)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("Win rate:      %.2f%%\n", m.WinRate)
	fmt.Printf("Avg win:       %.2f%%   Avg loss: %.2f%%\n", m.AvgWin, m.AvgLoss)
	fmt.Printf("Profit factor: %.2f\n", m.ProfitFactor)
	fmt.Printf("Avg R:         %.2f\n", m.AvgRMultiple)
	fmt.Printf("Total return:  $%.2f (%.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Printf("Max drawdown:  %.2f%%\n", m.MaxDrawdownPct)
	if m.BestTrade != nil {
		fmt.Printf("Best trade:    %s %.2f%%\n", m.BestTrade.Ticker, m.BestTrade.ReturnPct)
	}
	if m.WorstTrade != nil {
		fmt.Printf("Worst trade:   %s %.2f%%\n", m.WorstTrade.Ticker, m.WorstTrade.ReturnPct)
	}
	return nil
}

// latestPrices pulls the most recent collector price for each open
// position. Tickers without stats are skipped; the engine falls back to
// entry prices for marking.
func latestPrices(cmd *cobra.Command, a *app) (map[string]float64, error) {
	ctx := cmd.Context()
	status, err := a.engine.PortfolioStatus(ctx, nil)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(status.OpenPositions))
	for _, p := range status.OpenPositions {
		if _, ok := prices[p.Ticker]; ok {
			continue
		}
		st, err := a.activity.TickerStats(ctx, p.Ticker)
		if err != nil {
			continue
		}
		prices[p.Ticker] = st.Price
	}
	return prices, nil
}
