// Package quality applies the hard eligibility gates that cull the
// universe before any scoring: no penny stocks, no micro-caps, no
// illiquid names.
package quality

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// filterConcurrency bounds parallel stats lookups in FilterUniverse.
const filterConcurrency = 8

// Filter rejects a ticker before scoring when it fails a hard gate.
type Filter struct {
	cfg    strategyconfig.Quality
	stats  contracts.TickerStatsProvider
	logger *logger.Logger
}

// NewFilter creates a new quality filter.
func NewFilter(cfg strategyconfig.Quality, stats contracts.TickerStatsProvider, log *logger.Logger) *Filter {
	return &Filter{cfg: cfg, stats: stats, logger: log}
}

// Passes checks the gates in order: price, then market cap, then average
// volume. The first failing check wins. A stats lookup failure is a
// rejection with a descriptive reason, never a fatal error.
func (f *Filter) Passes(ctx context.Context, ticker string) (bool, string) {
	stats, err := f.stats.TickerStats(ctx, ticker)
	if err != nil || stats == nil {
		return false, fmt.Sprintf("Could not verify %s: no market data", ticker)
	}

	if stats.Price < f.cfg.MinStockPrice {
		return false, fmt.Sprintf("Price $%.2f below $%.2f minimum", stats.Price, f.cfg.MinStockPrice)
	}

	if stats.MarketCap < f.cfg.MinMarketCap {
		return false, fmt.Sprintf("Market cap $%.0fM below $%.0fM minimum",
			stats.MarketCap/1e6, f.cfg.MinMarketCap/1e6)
	}

	if stats.AvgVolume < f.cfg.MinAvgVolume {
		return false, fmt.Sprintf("Average volume %d below %d minimum", stats.AvgVolume, f.cfg.MinAvgVolume)
	}

	return true, "Passes quality filter"
}

// FilterUniverse applies Passes to every ticker. Checks are independent
// per ticker, so they run in parallel; results keep the input order.
func (f *Filter) FilterUniverse(ctx context.Context, tickers []string) ([]string, []contracts.Rejection) {
	type outcome struct {
		passed bool
		reason string
	}
	outcomes := make([]outcome, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(filterConcurrency)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			passed, reason := f.Passes(gctx, ticker)
			outcomes[i] = outcome{passed: passed, reason: reason}
			return nil
		})
	}
	// Workers never return errors; rejections are data, not failures.
	_ = g.Wait()

	passed := make([]string, 0, len(tickers))
	rejected := make([]contracts.Rejection, 0)
	for i, ticker := range tickers {
		if outcomes[i].passed {
			passed = append(passed, ticker)
			continue
		}
		rejected = append(rejected, contracts.Rejection{Ticker: ticker, Reason: outcomes[i].reason})
		f.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"reason": outcomes[i].reason,
		}).Info("Rejected by quality filter")
	}

	f.logger.WithFields(map[string]interface{}{
		"total":    len(tickers),
		"passed":   len(passed),
		"rejected": len(rejected),
	}).Info("Quality filtering completed")

	return passed, rejected
}
