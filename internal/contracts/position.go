package contracts

import "time"

// PositionStatus is the position lifecycle state. OPEN -> CLOSED is
// terminal; a closed position is never re-opened, only a new one entered.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// StopType labels how the current stop was last derived.
type StopType string

const (
	StopFixed     StopType = "FIXED"
	StopBreakeven StopType = "BREAKEVEN"
	StopTrailing  StopType = "TRAILING"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStop   ExitReason = "STOP"
	ExitTarget ExitReason = "TARGET"
	ExitTime   ExitReason = "TIME"
	ExitManual ExitReason = "MANUAL"
)

// Position is a paper-trading position. Created on entry, mutated only by
// the engine (trailing-stop raises, the CLOSED transition), never deleted.
type Position struct {
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	EntryDate time.Time `json:"entry_date"`

	EntryPrice float64 `json:"entry_price"`
	Shares     int64   `json:"shares"`
	EntryValue float64 `json:"entry_value"`

	InitialStop  float64  `json:"initial_stop"`
	CurrentStop  float64  `json:"current_stop"` // monotonically non-decreasing
	StopType     StopType `json:"stop_type"`
	TargetPrice  float64  `json:"target_price"`
	HighestPrice float64  `json:"highest_price"`

	Status PositionStatus `json:"status"`
	Source string         `json:"source,omitempty"`
	Notes  string         `json:"notes,omitempty"`

	// Exit fields, populated on close.
	ExitDate      *time.Time `json:"exit_date,omitempty"`
	ExitPrice     *float64   `json:"exit_price,omitempty"`
	ExitReason    ExitReason `json:"exit_reason,omitempty"`
	ReturnPct     float64    `json:"return_pct"`
	ReturnDollars float64    `json:"return_dollars"`
	DaysHeld      int        `json:"days_held"`
	RMultiple     float64    `json:"r_multiple"`
}

// MarkedPosition is an open position marked to market with a current quote
// (falling back to the entry price when no quote is available).
type MarkedPosition struct {
	Position
	CurrentPrice     float64 `json:"current_price"`
	CurrentValue     float64 `json:"current_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
}

// TradeResult summarizes a completed exit.
type TradeResult struct {
	TradeID       int64      `json:"trade_id"`
	Ticker        string     `json:"ticker"`
	EntryPrice    float64    `json:"entry_price"`
	ExitPrice     float64    `json:"exit_price"`
	Shares        int64      `json:"shares"`
	ReturnPct     float64    `json:"return_pct"`
	ReturnDollars float64    `json:"return_dollars"`
	RMultiple     float64    `json:"r_multiple"`
	DaysHeld      int        `json:"days_held"`
	Reason        ExitReason `json:"reason"`
}

// PortfolioStatus is the point-in-time portfolio snapshot returned to CLI
// commands and the email formatter.
type PortfolioStatus struct {
	Cash           float64          `json:"cash"`
	PositionsValue float64          `json:"positions_value"`
	TotalValue     float64          `json:"total_value"`
	TotalPnL       float64          `json:"total_pnl"`
	TotalPnLPct    float64          `json:"total_pnl_pct"`
	OpenPositions  []MarkedPosition `json:"open_positions"`
	NumPositions   int              `json:"num_positions"`
	AvailableSlots int              `json:"available_slots"`
}

// PortfolioSnapshot is one daily equity-curve row, keyed by date.
type PortfolioSnapshot struct {
	Date           time.Time `json:"date"`
	CashBalance    float64   `json:"cash_balance"`
	PositionsValue float64   `json:"positions_value"`
	TotalValue     float64   `json:"total_value"`
	OpenPositions  int       `json:"open_positions"`
	DailyPnL       float64   `json:"daily_pnl"`
	DailyPnLPct    float64   `json:"daily_pnl_pct"`
	TotalReturnPct float64   `json:"total_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	PeakValue      float64   `json:"peak_value"`
}

// PerformanceMetrics aggregates closed-trade results.
type PerformanceMetrics struct {
	TotalTrades    int      `json:"total_trades"`
	WinningTrades  int      `json:"winning_trades"`
	LosingTrades   int      `json:"losing_trades"`
	WinRate        float64  `json:"win_rate"`
	AvgWin         float64  `json:"avg_win"`
	AvgLoss        float64  `json:"avg_loss"`
	ProfitFactor   float64  `json:"profit_factor"`
	AvgRMultiple   float64  `json:"avg_r_multiple"`
	TotalReturn    float64  `json:"total_return"`
	TotalReturnPct float64  `json:"total_return_pct"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	BestTrade      *Position `json:"best_trade,omitempty"`
	WorstTrade     *Position `json:"worst_trade,omitempty"`
}
