package quality

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// fakeStats serves canned TickerStats; unknown tickers error like a
// missing row.
type fakeStats struct {
	stats map[string]contracts.TickerStats
}

func (f *fakeStats) TickerStats(_ context.Context, ticker string) (*contracts.TickerStats, error) {
	st, ok := f.stats[ticker]
	if !ok {
		return nil, fmt.Errorf("no market data for %s", ticker)
	}
	return &st, nil
}

func goodStats(ticker string) contracts.TickerStats {
	return contracts.TickerStats{
		Ticker:    ticker,
		Price:     50,
		MarketCap: 2e9,
		AvgVolume: 3_000_000,
	}
}

func newTestFilter(stats map[string]contracts.TickerStats) *Filter {
	return NewFilter(strategyconfig.Default().Quality, &fakeStats{stats: stats}, logger.NewNop())
}

func TestFilter_Passes(t *testing.T) {
	penny := goodStats("PENNY")
	penny.Price = 3.20
	micro := goodStats("MICRO")
	micro.MarketCap = 200e6
	thin := goodStats("THIN")
	thin.AvgVolume = 100_000

	filter := newTestFilter(map[string]contracts.TickerStats{
		"GOOD":  goodStats("GOOD"),
		"PENNY": penny,
		"MICRO": micro,
		"THIN":  thin,
	})

	ctx := context.Background()

	passed, reason := filter.Passes(ctx, "GOOD")
	assert.True(t, passed)
	assert.Equal(t, "Passes quality filter", reason)

	passed, reason = filter.Passes(ctx, "PENNY")
	assert.False(t, passed)
	assert.Equal(t, "Price $3.20 below $5.00 minimum", reason)

	passed, reason = filter.Passes(ctx, "MICRO")
	assert.False(t, passed)
	assert.Equal(t, "Market cap $200M below $500M minimum", reason)

	passed, reason = filter.Passes(ctx, "THIN")
	assert.False(t, passed)
	assert.Equal(t, "Average volume 100000 below 500000 minimum", reason)
}

func TestFilter_GateOrder(t *testing.T) {
	// A ticker failing every gate reports the price gate: checks run in
	// order and the first failure wins.
	bad := contracts.TickerStats{Ticker: "BAD", Price: 1, MarketCap: 1e6, AvgVolume: 10}
	filter := newTestFilter(map[string]contracts.TickerStats{"BAD": bad})

	passed, reason := filter.Passes(context.Background(), "BAD")
	assert.False(t, passed)
	assert.Contains(t, reason, "Price")
}

func TestFilter_MissingStatsIsRejection(t *testing.T) {
	filter := newTestFilter(nil)

	passed, reason := filter.Passes(context.Background(), "GHOST")
	assert.False(t, passed)
	assert.Equal(t, "Could not verify GHOST: no market data", reason)
}

func TestFilter_FilterUniverse(t *testing.T) {
	penny := goodStats("PENNY")
	penny.Price = 2

	filter := newTestFilter(map[string]contracts.TickerStats{
		"AAA":   goodStats("AAA"),
		"PENNY": penny,
		"ZZZ":   goodStats("ZZZ"),
	})

	passed, rejected := filter.FilterUniverse(context.Background(), []string{"AAA", "PENNY", "GHOST", "ZZZ"})

	// Input order survives the parallel checks.
	assert.Equal(t, []string{"AAA", "ZZZ"}, passed)
	assert.Len(t, rejected, 2)
	assert.Equal(t, "PENNY", rejected[0].Ticker)
	assert.Equal(t, "GHOST", rejected[1].Ticker)
}

func TestFilter_FilterUniverseEmpty(t *testing.T) {
	filter := newTestFilter(nil)

	passed, rejected := filter.FilterUniverse(context.Background(), nil)
	assert.Empty(t, passed)
	assert.Empty(t, rejected)
}
