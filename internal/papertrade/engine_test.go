package papertrade

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// memStore is an in-memory LedgerStore with the same atomicity contract
// as the Postgres one: failNext makes the next mutation fail without
// applying anything.
type memStore struct {
	nextID    int64
	positions map[int64]*contracts.Position
	cash      decimal.Decimal
	hasCash   bool
	snapshots []contracts.PortfolioSnapshot
	failNext  bool
}

func newMemStore() *memStore {
	return &memStore{positions: make(map[int64]*contracts.Position)}
}

var errStore = errors.New("store unavailable")

func (m *memStore) fail() bool {
	if m.failNext {
		m.failNext = false
		return true
	}
	return false
}

func (m *memStore) InsertPosition(_ context.Context, pos *contracts.Position, newCash decimal.Decimal) (int64, error) {
	if m.fail() {
		return 0, errStore
	}
	m.nextID++
	copied := *pos
	copied.ID = m.nextID
	m.positions[m.nextID] = &copied
	m.cash = newCash
	return m.nextID, nil
}

func (m *memStore) ClosePosition(_ context.Context, pos *contracts.Position, newCash decimal.Decimal) error {
	if m.fail() {
		return errStore
	}
	stored, ok := m.positions[pos.ID]
	if !ok || stored.Status != contracts.PositionOpen {
		return errors.New("position is not open")
	}
	copied := *pos
	m.positions[pos.ID] = &copied
	m.cash = newCash
	return nil
}

func (m *memStore) UpdateTrailing(_ context.Context, id int64, highestPrice, currentStop float64, stopType contracts.StopType) error {
	if m.fail() {
		return errStore
	}
	pos, ok := m.positions[id]
	if !ok {
		return errors.New("position not found")
	}
	pos.HighestPrice = highestPrice
	pos.CurrentStop = currentStop
	pos.StopType = stopType
	return nil
}

func (m *memStore) OpenPositions(_ context.Context) ([]contracts.Position, error) {
	var open []contracts.Position
	for _, pos := range m.positions {
		if pos.Status == contracts.PositionOpen {
			open = append(open, *pos)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (m *memStore) ClosedTrades(_ context.Context, limit int) ([]contracts.Position, error) {
	var closed []contracts.Position
	for _, pos := range m.positions {
		if pos.Status == contracts.PositionClosed {
			closed = append(closed, *pos)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].ExitDate.After(*closed[j].ExitDate) })
	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}
	return closed, nil
}

func (m *memStore) Cash(_ context.Context) (decimal.Decimal, bool, error) {
	return m.cash, m.hasCash, nil
}

func (m *memStore) InitCash(_ context.Context, cash decimal.Decimal) error {
	m.cash = cash
	m.hasCash = true
	return nil
}

func (m *memStore) SaveSnapshot(_ context.Context, snap *contracts.PortfolioSnapshot) error {
	m.snapshots = append(m.snapshots, *snap)
	return nil
}

func (m *memStore) LatestSnapshot(_ context.Context) (*contracts.PortfolioSnapshot, error) {
	if len(m.snapshots) == 0 {
		return nil, nil
	}
	snap := m.snapshots[len(m.snapshots)-1]
	return &snap, nil
}

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	engine := NewEngine(strategyconfig.Default().Trading, store, logger.NewNop())
	engine.now = func() time.Time {
		return time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)
	}
	return engine, store
}

func TestEngine_EnterTrade(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	id, err := engine.EnterTrade(ctx, "ACME", 100, 50, 90, 120, "sotd", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	cash, err := engine.Cash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 95_000.0, cash)

	// Position persisted with the stop state initialized.
	pos := store.positions[id]
	require.NotNil(t, pos)
	assert.Equal(t, contracts.PositionOpen, pos.Status)
	assert.Equal(t, contracts.StopFixed, pos.StopType)
	assert.Equal(t, 90.0, pos.CurrentStop)
	assert.Equal(t, 100.0, pos.HighestPrice)
}

func TestEngine_EnterTradeRejections(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// More than available cash.
	_, err := engine.EnterTrade(ctx, "ACME", 100, 1001, 90, 120, "", "")
	assert.ErrorIs(t, err, ErrInsufficientCash)

	// Position limit (default 5).
	for i := 0; i < 5; i++ {
		_, err := engine.EnterTrade(ctx, "ACME", 10, 100, 9, 12, "", "")
		require.NoError(t, err)
	}
	_, err = engine.EnterTrade(ctx, "ACME", 10, 100, 9, 12, "", "")
	assert.ErrorIs(t, err, ErrMaxPositions)

	_, err = engine.EnterTrade(ctx, "ACME", 10, 0, 9, 12, "", "")
	assert.ErrorIs(t, err, ErrInvalidShares)
}

func TestEngine_PersistFailureNotApplied(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	store.failNext = true
	_, err := engine.EnterTrade(ctx, "ACME", 100, 50, 90, 120, "", "")
	require.Error(t, err)

	// Ledger untouched: full cash, no position, next entry succeeds.
	cash, err := engine.Cash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, cash)

	_, err = engine.EnterTrade(ctx, "ACME", 100, 50, 90, 120, "", "")
	assert.NoError(t, err)
}

func TestEngine_ExitRoundTripExactCash(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// Enter and exit at the same price: cash returns to exactly the
	// starting capital, no float residue.
	id, err := engine.EnterTrade(ctx, "ACME", 19.985, 333, 18, 24, "", "")
	require.NoError(t, err)

	result, err := engine.ExitTrade(ctx, id, 19.985, contracts.ExitManual)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.ReturnPct)
	assert.Equal(t, 0.0, result.ReturnDollars)

	cash, err := engine.Cash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, cash)
}

func TestEngine_ExitTrade(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := engine.EnterTrade(ctx, "ACME", 100, 50, 90, 120, "", "")
	require.NoError(t, err)

	result, err := engine.ExitTrade(ctx, id, 110, contracts.ExitTarget)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.ReturnPct)
	assert.Equal(t, 500.0, result.ReturnDollars)
	assert.Equal(t, 1.0, result.RMultiple) // 10 gained over 10 risked

	cash, err := engine.Cash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_500.0, cash)

	// A second exit cannot double-credit.
	_, err = engine.ExitTrade(ctx, id, 110, contracts.ExitManual)
	assert.ErrorIs(t, err, ErrPositionNotOpen)
	cash, _ = engine.Cash(ctx)
	assert.Equal(t, 100_500.0, cash)
}

func TestEngine_ExitUnknownTrade(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ExitTrade(context.Background(), 99, 100, contracts.ExitManual)
	assert.ErrorIs(t, err, ErrPositionNotOpen)
}

func TestEngine_CheckStops_StopBeatsTarget(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// Degenerate position where one price satisfies both stop and
	// target: the stop check runs first.
	id, err := engine.EnterTrade(ctx, "ACME", 100, 10, 95, 94, "", "")
	require.NoError(t, err)

	triggered, err := engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 94.5})
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, id, triggered[0].TradeID)
	assert.Equal(t, contracts.ExitStop, triggered[0].Reason)
}

func TestEngine_CheckStops_TargetHit(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.EnterTrade(ctx, "ACME", 100, 10, 90, 120, "", "")
	require.NoError(t, err)

	triggered, err := engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 121})
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, contracts.ExitTarget, triggered[0].Reason)
}

func TestEngine_CheckStops_MissingQuoteSkipped(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.EnterTrade(ctx, "ACME", 100, 10, 90, 120, "", "")
	require.NoError(t, err)

	triggered, err := engine.CheckStopsAndTargets(ctx, map[string]float64{"OTHER": 1})
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestEngine_TrailingStopProgression(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	id, err := engine.EnterTrade(ctx, "ACME", 100, 10, 90, 200, "", "")
	require.NoError(t, err)

	// +5%: breakeven trigger moves the stop to entry.
	_, err = engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 105})
	require.NoError(t, err)
	pos := store.positions[id]
	assert.Equal(t, 100.0, pos.CurrentStop)
	assert.Equal(t, contracts.StopBreakeven, pos.StopType)

	// +20%: trailing stop 10% under the high.
	_, err = engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 120})
	require.NoError(t, err)
	pos = store.positions[id]
	assert.InDelta(t, 108.0, pos.CurrentStop, 0.001)
	assert.Equal(t, contracts.StopTrailing, pos.StopType)
	assert.Equal(t, 120.0, pos.HighestPrice)

	// Pullback below the high never lowers the stop or the high.
	_, err = engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 112})
	require.NoError(t, err)
	pos = store.positions[id]
	assert.InDelta(t, 108.0, pos.CurrentStop, 0.001)
	assert.Equal(t, 120.0, pos.HighestPrice)

	// New high raises it again.
	_, err = engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": 150})
	require.NoError(t, err)
	pos = store.positions[id]
	assert.InDelta(t, 135.0, pos.CurrentStop, 0.001)
}

func TestEngine_TrailingNeverLowered(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	id, err := engine.EnterTrade(ctx, "ACME", 100, 10, 90, 200, "", "")
	require.NoError(t, err)

	// Stops only ratchet up across successive highs.
	prevStop := 0.0
	for _, price := range []float64{105, 120, 120.5, 130, 129.9, 140} {
		_, err = engine.CheckStopsAndTargets(ctx, map[string]float64{"ACME": price})
		require.NoError(t, err)
		pos := store.positions[id]
		assert.GreaterOrEqual(t, pos.CurrentStop, prevStop, "price %.1f lowered the stop", price)
		prevStop = pos.CurrentStop
	}
	assert.InDelta(t, 126.0, prevStop, 0.001) // 10% under the 140 high
}

func TestEngine_CalculatePositionSize(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Risk $2,000 (2% of 100k) over $5 risk per share = 400 shares;
	// the 20% cap (20000/100 = 200) binds.
	shares, err := engine.CalculatePositionSize(100, 95, 100_000)
	require.NoError(t, err)
	assert.Equal(t, int64(200), shares)

	// Wider stop: 2000/20 = 100 shares, under the cap.
	shares, err = engine.CalculatePositionSize(100, 80, 100_000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)

	// Stop at or above entry is invalid.
	_, err = engine.CalculatePositionSize(100, 100, 100_000)
	assert.ErrorIs(t, err, ErrInvalidStop)
	_, err = engine.CalculatePositionSize(100, 105, 100_000)
	assert.ErrorIs(t, err, ErrInvalidStop)
}

func TestEngine_PortfolioStatus(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.EnterTrade(ctx, "ACME", 100, 100, 90, 120, "", "")
	require.NoError(t, err)
	_, err = engine.EnterTrade(ctx, "BETA", 50, 100, 45, 60, "", "")
	require.NoError(t, err)

	status, err := engine.PortfolioStatus(ctx, map[string]float64{"ACME": 110})
	require.NoError(t, err)

	assert.Equal(t, 85_000.0, status.Cash)
	// ACME marked at 110, BETA falls back to entry.
	assert.Equal(t, 16_000.0, status.PositionsValue)
	assert.Equal(t, 101_000.0, status.TotalValue)
	assert.Equal(t, 1_000.0, status.TotalPnL)
	assert.Equal(t, 2, status.NumPositions)
	assert.Equal(t, 3, status.AvailableSlots)

	acme := status.OpenPositions[0]
	assert.Equal(t, 1_000.0, acme.UnrealizedPnL)
	assert.Equal(t, 10.0, acme.UnrealizedPnLPct)
}

func TestEngine_ReloadFromStore(t *testing.T) {
	store := newMemStore()
	cfg := strategyconfig.Default().Trading

	first := NewEngine(cfg, store, logger.NewNop())
	ctx := context.Background()
	id, err := first.EnterTrade(ctx, "ACME", 100, 50, 90, 120, "", "")
	require.NoError(t, err)

	// A fresh engine over the same store sees the position and cash.
	second := NewEngine(cfg, store, logger.NewNop())
	status, err := second.PortfolioStatus(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 95_000.0, status.Cash)
	require.Len(t, status.OpenPositions, 1)
	assert.Equal(t, id, status.OpenPositions[0].ID)

	// And can close it.
	_, err = second.ExitTrade(ctx, id, 100, contracts.ExitManual)
	require.NoError(t, err)
	cash, err := second.Cash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, cash)
}
