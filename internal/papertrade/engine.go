// Package papertrade simulates trades with virtual money: position entry
// with risk-based sizing, stop/target management with trailing stops, and
// an exactly-reconciled cash ledger.
package papertrade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// Rejected-operation errors. These are caller errors: silently proceeding
// would corrupt the ledger, so they always fail loudly.
var (
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrMaxPositions     = errors.New("position limit reached")
	ErrPositionNotOpen  = errors.New("position is not open")
	ErrInvalidStop      = errors.New("stop price must be below entry price")
	ErrInvalidShares    = errors.New("shares must be at least 1")
)

// Engine manages the paper-trading portfolio. The ledger (cash plus open
// positions) is the one piece of shared mutable state in the system; every
// operation is applied as a single atomic unit under the engine mutex, and
// persisted through the store before the in-memory state changes. A store
// error means the operation was not applied.
type Engine struct {
	cfg    strategyconfig.Trading
	store  contracts.LedgerStore
	logger *logger.Logger

	mu        sync.Mutex
	loaded    bool
	cash      decimal.Decimal
	positions map[int64]*contracts.Position // OPEN positions only

	now func() time.Time
}

// NewEngine creates a paper-trading engine backed by the given store.
func NewEngine(cfg strategyconfig.Trading, store contracts.LedgerStore, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		logger:    log,
		positions: make(map[int64]*contracts.Position),
		now:       time.Now,
	}
}

// load restores the ledger from the store, seeding the starting capital
// on first use. Caller must hold the mutex.
func (e *Engine) load(ctx context.Context) error {
	if e.loaded {
		return nil
	}

	cash, ok, err := e.store.Cash(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cash balance: %w", err)
	}
	if !ok {
		cash = decimal.NewFromFloat(e.cfg.StartingCapital)
		if err := e.store.InitCash(ctx, cash); err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}
	}

	open, err := e.store.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open positions: %w", err)
	}

	e.cash = cash
	e.positions = make(map[int64]*contracts.Position, len(open))
	for i := range open {
		pos := open[i]
		e.positions[pos.ID] = &pos
	}
	e.loaded = true
	return nil
}

// EnterTrade opens a new position. It rejects the trade when the position
// value exceeds available cash or the open-position limit is reached, and
// debits cash exactly once on success.
func (e *Engine) EnterTrade(
	ctx context.Context,
	ticker string,
	entryPrice float64,
	shares int64,
	stopPrice, targetPrice float64,
	source, notes string,
) (int64, error) {
	if shares < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidShares, shares)
	}
	if entryPrice <= 0 {
		return 0, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return 0, err
	}

	entryValue := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromInt(shares))
	if entryValue.GreaterThan(e.cash) {
		return 0, fmt.Errorf("%w: need $%s, have $%s", ErrInsufficientCash,
			entryValue.StringFixed(2), e.cash.StringFixed(2))
	}

	if len(e.positions) >= e.cfg.MaxPositions {
		return 0, fmt.Errorf("%w: %d/%d open", ErrMaxPositions, len(e.positions), e.cfg.MaxPositions)
	}

	entryValueF, _ := entryValue.Float64()
	pos := &contracts.Position{
		Ticker:       ticker,
		EntryDate:    e.now(),
		EntryPrice:   entryPrice,
		Shares:       shares,
		EntryValue:   entryValueF,
		InitialStop:  stopPrice,
		CurrentStop:  stopPrice,
		StopType:     contracts.StopFixed,
		TargetPrice:  targetPrice,
		HighestPrice: entryPrice,
		Status:       contracts.PositionOpen,
		Source:       source,
		Notes:        notes,
	}

	newCash := e.cash.Sub(entryValue)
	id, err := e.store.InsertPosition(ctx, pos, newCash)
	if err != nil {
		return 0, fmt.Errorf("failed to persist entry: %w", err)
	}

	pos.ID = id
	e.positions[id] = pos
	e.cash = newCash

	e.logger.WithFields(map[string]interface{}{
		"trade_id":    id,
		"ticker":      ticker,
		"shares":      shares,
		"entry_price": entryPrice,
		"stop":        stopPrice,
		"target":      targetPrice,
		"cash":        e.cash.StringFixed(2),
	}).Info("Entered paper trade")

	return id, nil
}

// ExitTrade closes an open position at the given price, crediting cash
// exactly once. Exiting a position that is not open fails; a second exit
// for the same id can never double-credit the ledger.
func (e *Engine) ExitTrade(ctx context.Context, id int64, exitPrice float64, reason contracts.ExitReason) (*contracts.TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	return e.exitLocked(ctx, id, exitPrice, reason)
}

// exitLocked performs the exit. Caller must hold the mutex with the
// ledger loaded.
func (e *Engine) exitLocked(ctx context.Context, id int64, exitPrice float64, reason contracts.ExitReason) (*contracts.TradeResult, error) {
	pos, ok := e.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: trade %d", ErrPositionNotOpen, id)
	}

	exitDate := e.now()
	returnPct := (exitPrice - pos.EntryPrice) / pos.EntryPrice * 100
	returnDollars := (exitPrice - pos.EntryPrice) * float64(pos.Shares)
	daysHeld := int(exitDate.Sub(pos.EntryDate).Hours() / 24)

	rMultiple := 0.0
	if risk := pos.EntryPrice - pos.InitialStop; risk > 0 {
		rMultiple = (exitPrice - pos.EntryPrice) / risk
	}

	closed := *pos
	closed.Status = contracts.PositionClosed
	closed.ExitDate = &exitDate
	closed.ExitPrice = &exitPrice
	closed.ExitReason = reason
	closed.ReturnPct = round2(returnPct)
	closed.ReturnDollars = round2(returnDollars)
	closed.DaysHeld = daysHeld
	closed.RMultiple = round2(rMultiple)

	exitValue := decimal.NewFromFloat(exitPrice).Mul(decimal.NewFromInt(pos.Shares))
	newCash := e.cash.Add(exitValue)

	if err := e.store.ClosePosition(ctx, &closed, newCash); err != nil {
		return nil, fmt.Errorf("failed to persist exit: %w", err)
	}

	delete(e.positions, id)
	e.cash = newCash

	e.logger.WithFields(map[string]interface{}{
		"trade_id":   id,
		"ticker":     pos.Ticker,
		"exit_price": exitPrice,
		"return_pct": closed.ReturnPct,
		"reason":     string(reason),
		"cash":       e.cash.StringFixed(2),
	}).Info("Exited paper trade")

	return &contracts.TradeResult{
		TradeID:       id,
		Ticker:        pos.Ticker,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     exitPrice,
		Shares:        pos.Shares,
		ReturnPct:     closed.ReturnPct,
		ReturnDollars: closed.ReturnDollars,
		RMultiple:     closed.RMultiple,
		DaysHeld:      daysHeld,
		Reason:        reason,
	}, nil
}

// CheckStopsAndTargets sweeps every open position against current prices.
// Per position, strictly in order: stop hit, then target hit, then
// trailing-stop update on a new high. The stop check runs first, so a
// position can never stop and target in the same sweep. Positions without
// a quote are skipped.
func (e *Engine) CheckStopsAndTargets(ctx context.Context, currentPrices map[string]float64) ([]contracts.TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var triggered []contracts.TradeResult
	for _, id := range ids {
		pos := e.positions[id]
		price, ok := currentPrices[pos.Ticker]
		if !ok {
			continue
		}

		if price <= pos.CurrentStop {
			result, err := e.exitLocked(ctx, id, price, contracts.ExitStop)
			if err != nil {
				return triggered, err
			}
			triggered = append(triggered, *result)
			continue
		}

		if price >= pos.TargetPrice {
			result, err := e.exitLocked(ctx, id, price, contracts.ExitTarget)
			if err != nil {
				return triggered, err
			}
			triggered = append(triggered, *result)
			continue
		}

		if price > pos.HighestPrice {
			newStop, stopType := e.trailingStop(pos, price)
			if err := e.store.UpdateTrailing(ctx, id, price, newStop, stopType); err != nil {
				return triggered, fmt.Errorf("failed to persist trailing update for trade %d: %w", id, err)
			}
			pos.HighestPrice = price
			pos.CurrentStop = newStop
			pos.StopType = stopType
		}
	}

	return triggered, nil
}

// trailingStop computes the new stop for a position making a new high.
// Gains over the trailing trigger trail 10% below the price; gains over
// the breakeven trigger move the stop to entry. The stop is never
// lowered: the effective stop is the max of the proposal and the current.
func (e *Engine) trailingStop(pos *contracts.Position, currentPrice float64) (float64, contracts.StopType) {
	gain := (currentPrice - pos.EntryPrice) / pos.EntryPrice

	proposed := pos.CurrentStop
	proposedType := pos.StopType
	switch {
	case gain >= e.cfg.TrailingTrigger:
		proposed = currentPrice * (1 - e.cfg.TrailingStopPct)
		proposedType = contracts.StopTrailing
	case gain >= e.cfg.BreakevenTrigger:
		proposed = pos.EntryPrice
		proposedType = contracts.StopBreakeven
	}

	if proposed <= pos.CurrentStop {
		return pos.CurrentStop, pos.StopType
	}
	return proposed, proposedType
}

// CalculatePositionSize sizes a position off risk: shares risking at most
// MaxRiskPerTrade of the portfolio between entry and stop, capped at
// MaxPositionPct of the portfolio. A stop at or above entry is a caller
// error.
func (e *Engine) CalculatePositionSize(entryPrice, stopPrice, portfolioValue float64) (int64, error) {
	riskPerShare := entryPrice - stopPrice
	if riskPerShare <= 0 {
		return 0, fmt.Errorf("%w: entry %v, stop %v", ErrInvalidStop, entryPrice, stopPrice)
	}

	maxRiskDollars := portfolioValue * e.cfg.MaxRiskPerTrade
	shares := int64(maxRiskDollars / riskPerShare)

	maxShares := int64(portfolioValue * e.cfg.MaxPositionPct / entryPrice)
	if shares > maxShares {
		shares = maxShares
	}
	return shares, nil
}

// PortfolioStatus marks open positions to market with the supplied
// prices. A missing quote falls back to the entry price without error.
func (e *Engine) PortfolioStatus(ctx context.Context, currentPrices map[string]float64) (*contracts.PortfolioStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	marked := make([]contracts.MarkedPosition, 0, len(ids))
	positionsValue := 0.0
	for _, id := range ids {
		pos := e.positions[id]
		price, ok := currentPrices[pos.Ticker]
		if !ok {
			price = pos.EntryPrice
		}

		currentValue := price * float64(pos.Shares)
		unrealized := currentValue - pos.EntryValue
		unrealizedPct := 0.0
		if pos.EntryValue > 0 {
			unrealizedPct = unrealized / pos.EntryValue * 100
		}
		positionsValue += currentValue

		mp := contracts.MarkedPosition{
			Position:         *pos,
			CurrentPrice:     round2(price),
			CurrentValue:     round2(currentValue),
			UnrealizedPnL:    round2(unrealized),
			UnrealizedPnLPct: round2(unrealizedPct),
		}
		mp.DaysHeld = int(e.now().Sub(pos.EntryDate).Hours() / 24)
		marked = append(marked, mp)
	}

	cash, _ := e.cash.Float64()
	totalValue := cash + positionsValue
	totalPnL := totalValue - e.cfg.StartingCapital

	return &contracts.PortfolioStatus{
		Cash:           round2(cash),
		PositionsValue: round2(positionsValue),
		TotalValue:     round2(totalValue),
		TotalPnL:       round2(totalPnL),
		TotalPnLPct:    round2(totalPnL / e.cfg.StartingCapital * 100),
		OpenPositions:  marked,
		NumPositions:   len(marked),
		AvailableSlots: e.cfg.MaxPositions - len(marked),
	}, nil
}

// Cash returns the current cash balance.
func (e *Engine) Cash(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return 0, err
	}
	cash, _ := e.cash.Float64()
	return cash, nil
}

// ClosedTrades returns recently closed trades, newest exit first.
func (e *Engine) ClosedTrades(ctx context.Context, limit int) ([]contracts.Position, error) {
	return e.store.ClosedTrades(ctx, limit)
}

// round2 rounds a monetary value to cents.
func round2(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return rounded
}
