package contracts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityRepository reads the collector-maintained activity tables.
// The core only reads; collectors own the writes.
type ActivityRepository interface {
	// InsiderActivity returns purchases since the cutoff date, largest
	// first, or nil when the ticker has none in the window.
	InsiderActivity(ctx context.Context, ticker string, since time.Time) (*InsiderActivity, error)

	// OptionsActivity returns the flow summary for the date, or nil when
	// no row exists.
	OptionsActivity(ctx context.Context, ticker string, date time.Time) (*OptionsActivity, error)

	// SocialActivity returns the social metrics for the date, or nil when
	// no row exists.
	SocialActivity(ctx context.Context, ticker string, date time.Time) (*SocialActivity, error)

	// ScoringUniverse returns the tickers with any signal activity worth
	// scoring for the date (recent insider buying, unusual options flow,
	// social mentions).
	ScoringUniverse(ctx context.Context, date time.Time, insiderSince time.Time) ([]string, error)
}

// TickerStatsProvider supplies quality-gate facts for a ticker. A lookup
// failure is reported as an error and treated as a gate rejection, not a
// fatal condition.
type TickerStatsProvider interface {
	TickerStats(ctx context.Context, ticker string) (*TickerStats, error)
}

// SignalRepository persists combined signals, one row per (ticker, date).
type SignalRepository interface {
	// UpsertSignal overwrites any earlier signal for the same (ticker, date).
	UpsertSignal(ctx context.Context, signal *CombinedSignal) error

	// SignalsForDate returns the date's signals ordered by total score
	// descending, optionally filtered by action.
	SignalsForDate(ctx context.Context, date time.Time, action Action, limit int) ([]CombinedSignal, error)
}

// DecisionRepository persists the daily stock-of-the-day decision trace.
type DecisionRepository interface {
	SaveDecision(ctx context.Context, decision *DayDecision) error
	Decision(ctx context.Context, date time.Time) (*DayDecision, error)
}

// LedgerStore is the durable side of the paper-trading ledger. Every
// mutation that moves cash is written together with the position change in
// one transaction, so the ledger invariant (cash + position cost
// reconciles with starting capital plus realized P&L) holds across
// restarts. A store error means the operation was not applied.
type LedgerStore interface {
	// InsertPosition persists a new OPEN position and the debited cash
	// balance atomically, returning the assigned trade id.
	InsertPosition(ctx context.Context, pos *Position, newCash decimal.Decimal) (int64, error)

	// ClosePosition persists the CLOSED transition with its exit fields
	// and the credited cash balance atomically.
	ClosePosition(ctx context.Context, pos *Position, newCash decimal.Decimal) error

	// UpdateTrailing persists a trailing-stop raise for an open position.
	UpdateTrailing(ctx context.Context, id int64, highestPrice, currentStop float64, stopType StopType) error

	// OpenPositions loads all OPEN positions ordered by entry date.
	OpenPositions(ctx context.Context) ([]Position, error)

	// ClosedTrades loads recently closed positions, newest exit first.
	ClosedTrades(ctx context.Context, limit int) ([]Position, error)

	// Cash loads the persisted cash balance. ok is false when the ledger
	// has never been initialized.
	Cash(ctx context.Context) (cash decimal.Decimal, ok bool, err error)

	// InitCash seeds the ledger with the starting capital.
	InitCash(ctx context.Context, cash decimal.Decimal) error

	// SaveSnapshot upserts the daily equity-curve row for its date.
	SaveSnapshot(ctx context.Context, snap *PortfolioSnapshot) error

	// LatestSnapshot returns the most recent snapshot, or nil when none.
	LatestSnapshot(ctx context.Context) (*PortfolioSnapshot, error)
}
