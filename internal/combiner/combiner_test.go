package combiner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/quality"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

var testDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

// fakeActivity serves canned activity per ticker; absent entries behave
// like empty tables.
type fakeActivity struct {
	insider  map[string]*contracts.InsiderActivity
	options  map[string]*contracts.OptionsActivity
	social   map[string]*contracts.SocialActivity
	universe []string
	stats    map[string]contracts.TickerStats
}

func (f *fakeActivity) InsiderActivity(_ context.Context, ticker string, _ time.Time) (*contracts.InsiderActivity, error) {
	return f.insider[ticker], nil
}

func (f *fakeActivity) OptionsActivity(_ context.Context, ticker string, _ time.Time) (*contracts.OptionsActivity, error) {
	return f.options[ticker], nil
}

func (f *fakeActivity) SocialActivity(_ context.Context, ticker string, _ time.Time) (*contracts.SocialActivity, error) {
	return f.social[ticker], nil
}

func (f *fakeActivity) ScoringUniverse(_ context.Context, _, _ time.Time) ([]string, error) {
	return f.universe, nil
}

func (f *fakeActivity) TickerStats(_ context.Context, ticker string) (*contracts.TickerStats, error) {
	st, ok := f.stats[ticker]
	if !ok {
		return nil, fmt.Errorf("no market data for %s", ticker)
	}
	return &st, nil
}

// fakeSignalRepo records upserts by (ticker, date).
type fakeSignalRepo struct {
	saved map[string]*contracts.CombinedSignal
}

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{saved: make(map[string]*contracts.CombinedSignal)}
}

func (f *fakeSignalRepo) UpsertSignal(_ context.Context, signal *contracts.CombinedSignal) error {
	key := signal.Ticker + signal.Date.Format("2006-01-02")
	copied := *signal
	f.saved[key] = &copied
	return nil
}

func (f *fakeSignalRepo) SignalsForDate(_ context.Context, date time.Time, action contracts.Action, _ int) ([]contracts.CombinedSignal, error) {
	var out []contracts.CombinedSignal
	for _, s := range f.saved {
		if s.Date.Equal(date) && (action == "" || s.Action == action) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeDecisionRepo struct {
	saved *contracts.DayDecision
}

func (f *fakeDecisionRepo) SaveDecision(_ context.Context, decision *contracts.DayDecision) error {
	copied := *decision
	f.saved = &copied
	return nil
}

func (f *fakeDecisionRepo) Decision(_ context.Context, _ time.Time) (*contracts.DayDecision, error) {
	return f.saved, nil
}

func strongInsider() *contracts.InsiderActivity {
	return &contracts.InsiderActivity{
		Ticker: "ACME",
		Trades: []contracts.InsiderTrade{{
			InsiderName:  "Alice Smith",
			InsiderTitle: "Chief Executive Officer",
			TotalValue:   750_000,
			TradeDate:    testDate.AddDate(0, 0, -3),
		}},
	}
}

func confirmingSocial() *contracts.SocialActivity {
	return &contracts.SocialActivity{
		Ticker:             "ACME",
		RedditMentions:     200,
		StocktwitsMentions: 100,
		CombinedVelocity:   250,
	}
}

func newTestCombiner(activity *fakeActivity, repo *fakeSignalRepo) *Combiner {
	return NewCombiner(strategyconfig.Default(), activity, repo, logger.NewNop())
}

func TestCombiner_TradeWithConfirmation(t *testing.T) {
	activity := &fakeActivity{
		insider: map[string]*contracts.InsiderActivity{"ACME": strongInsider()},
		social:  map[string]*contracts.SocialActivity{"ACME": confirmingSocial()},
	}
	c := newTestCombiner(activity, newFakeSignalRepo())

	signal, err := c.Combine(context.Background(), "ACME", testDate, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 21, signal.Insider.Score)
	assert.Equal(t, 13, signal.Social.Score) // 10 velocity + 3 cross-platform
	assert.Equal(t, 34, signal.TotalScore)
	assert.Equal(t, contracts.ActionTrade, signal.Action)
	assert.Equal(t, contracts.TierA, signal.Tier)
	assert.Equal(t, contracts.SizeQuarter, signal.PositionSize)
	assert.Equal(t, "Strong insider buying; Social confirmation", signal.Notes)
}

func TestCombiner_PrimaryWithoutSocialIsWatch(t *testing.T) {
	activity := &fakeActivity{
		insider: map[string]*contracts.InsiderActivity{"ACME": strongInsider()},
	}
	c := newTestCombiner(activity, newFakeSignalRepo())

	signal, err := c.Combine(context.Background(), "ACME", testDate, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, contracts.ActionWatch, signal.Action)
	assert.Equal(t, contracts.TierB, signal.Tier)
	assert.Equal(t, contracts.SizeNone, signal.PositionSize)
	assert.Equal(t, "Insider buying (needs social confirmation)", signal.Notes)
}

func TestCombiner_ModerateSignalIsWatchC(t *testing.T) {
	// A COO buy scores 13: under the 15 primary bar, over the 10 watch bar.
	activity := &fakeActivity{
		insider: map[string]*contracts.InsiderActivity{"ACME": {
			Ticker: "ACME",
			Trades: []contracts.InsiderTrade{{
				InsiderName:  "Frank Black",
				InsiderTitle: "Chief Operating Officer",
				TotalValue:   150_000,
				TradeDate:    testDate.AddDate(0, 0, -1),
			}},
		}},
	}
	c := newTestCombiner(activity, newFakeSignalRepo())

	signal, err := c.Combine(context.Background(), "ACME", testDate, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 13, signal.Insider.Score)
	assert.Equal(t, contracts.ActionWatch, signal.Action)
	assert.Equal(t, contracts.TierC, signal.Tier)
	assert.Equal(t, "Moderate signal - monitoring", signal.Notes)
}

func TestCombiner_NoActivityIsNone(t *testing.T) {
	c := newTestCombiner(&fakeActivity{}, newFakeSignalRepo())

	signal, err := c.Combine(context.Background(), "ACME", testDate, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, signal.TotalScore)
	assert.Equal(t, contracts.ActionNone, signal.Action)
	assert.Equal(t, contracts.SizeNone, signal.PositionSize)
	assert.Equal(t, "No significant signals", signal.Notes)
	// Zero-score components keep their reasons for the trace.
	assert.Equal(t, "No insider buying in lookback period", signal.Insider.Reason)
	assert.Equal(t, "No options data available", signal.Options.Reason)
}

func TestCombiner_PositionSizing(t *testing.T) {
	// CEO+CFO cluster (27) + strong options (25) + social (13) = 65: FULL.
	activity := &fakeActivity{
		insider: map[string]*contracts.InsiderActivity{"ACME": {
			Ticker: "ACME",
			Trades: []contracts.InsiderTrade{
				{InsiderName: "Alice Smith", InsiderTitle: "CEO", TotalValue: 1_200_000, TradeDate: testDate},
				{InsiderName: "Eve Green", InsiderTitle: "CFO", TotalValue: 900_000, TradeDate: testDate},
			},
		}},
		options: map[string]*contracts.OptionsActivity{"ACME": {
			Ticker:           "ACME",
			CallVolume:       9000,
			CallOpenInterest: 9000,
			PutOpenInterest:  1000,
			AvgCallVolume20D: 1000,
			AvgPutVolume20D:  500,
			CallVolumeRatio:  6.0,
			PutCallRatio:     0.2,
			UnusualCalls:     true,
		}},
		social: map[string]*contracts.SocialActivity{"ACME": confirmingSocial()},
	}
	c := newTestCombiner(activity, newFakeSignalRepo())

	signal, err := c.Combine(context.Background(), "ACME", testDate, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 65, signal.TotalScore)
	assert.Equal(t, contracts.ActionTrade, signal.Action)
	assert.Equal(t, contracts.SizeFull, signal.PositionSize)
}

func TestCombiner_TradeParams(t *testing.T) {
	activity := &fakeActivity{
		insider: map[string]*contracts.InsiderActivity{"ACME": strongInsider()},
		social:  map[string]*contracts.SocialActivity{"ACME": confirmingSocial()},
	}
	c := newTestCombiner(activity, newFakeSignalRepo())
	ctx := context.Background()

	price := 100.0
	atr := 2.5

	// ATR-based stop and target.
	signal, err := c.Combine(ctx, "ACME", testDate, &price, &atr)
	require.NoError(t, err)
	require.NotNil(t, signal.StopPrice)
	require.NotNil(t, signal.TargetPrice)
	assert.Equal(t, 95.0, *signal.StopPrice)    // price - 2*ATR
	assert.Equal(t, 107.5, *signal.TargetPrice) // price + 3*ATR

	// Percentage defaults without ATR.
	signal, err = c.Combine(ctx, "ACME", testDate, &price, nil)
	require.NoError(t, err)
	assert.Equal(t, 90.0, *signal.StopPrice)
	assert.Equal(t, 120.0, *signal.TargetPrice)

	// No price, no params.
	signal, err = c.Combine(ctx, "ACME", testDate, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, signal.EntryPrice)
	assert.Nil(t, signal.StopPrice)
}

func TestCombiner_RunDaily(t *testing.T) {
	activity := &fakeActivity{
		insider:  map[string]*contracts.InsiderActivity{"ACME": strongInsider()},
		social:   map[string]*contracts.SocialActivity{"ACME": confirmingSocial()},
		universe: []string{"ACME", "PENNY"},
		stats: map[string]contracts.TickerStats{
			"ACME":  {Ticker: "ACME", Price: 50, MarketCap: 2e9, AvgVolume: 3_000_000},
			"PENNY": {Ticker: "PENNY", Price: 2, MarketCap: 2e9, AvgVolume: 3_000_000},
		},
	}
	repo := newFakeSignalRepo()
	cfg := strategyconfig.Default()
	c := NewCombiner(cfg, activity, repo, logger.NewNop())
	filter := quality.NewFilter(cfg.Quality, activity, logger.NewNop())
	selector := NewSelector(cfg.Selection, logger.NewNop())
	decisions := &fakeDecisionRepo{}

	result, err := c.RunDaily(context.Background(), testDate, filter, selector, decisions)
	require.NoError(t, err)

	// PENNY culled by the filter, ACME scored and persisted.
	assert.Len(t, result.Signals, 1)
	assert.Equal(t, "ACME", result.Signals[0].Ticker)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, "PENNY", result.Rejected[0].Ticker)
	assert.Len(t, repo.saved, 1)

	// Decision trace persisted: ACME scores 34, under the 35 bar.
	require.NotNil(t, decisions.saved)
	assert.False(t, decisions.saved.HasPick)
	assert.Equal(t, "Best score 34 (ACME) below minimum 35", decisions.saved.Reason)
	assert.Equal(t, 1, decisions.saved.CandidateCount)
	assert.Equal(t, 1, decisions.saved.FilteredCount)
}
