package papertrade

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/radar/internal/contracts"
)

// Repository is the Postgres-backed ledger store. Position mutations and
// the cash balance are written in one transaction so the ledger stays
// consistent with what the engine applied in memory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a paper-trading repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.LedgerStore = (*Repository)(nil)

// InsertPosition persists a new OPEN position and the debited cash balance
// atomically, returning the assigned trade id.
func (r *Repository) InsertPosition(ctx context.Context, pos *contracts.Position, newCash decimal.Decimal) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trading.positions (
			ticker, entry_date, entry_price, shares, entry_value,
			initial_stop, current_stop, stop_type, target_price, highest_price,
			status, source, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		pos.Ticker, pos.EntryDate, pos.EntryPrice, pos.Shares, pos.EntryValue,
		pos.InitialStop, pos.CurrentStop, pos.StopType, pos.TargetPrice, pos.HighestPrice,
		pos.Status, pos.Source, pos.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position: %w", err)
	}

	if err := setCash(ctx, tx, newCash); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// ClosePosition persists the CLOSED transition with its exit fields and
// the credited cash balance atomically.
func (r *Repository) ClosePosition(ctx context.Context, pos *contracts.Position, newCash decimal.Decimal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE trading.positions SET
			status = $2,
			exit_date = $3,
			exit_price = $4,
			exit_reason = $5,
			return_pct = $6,
			return_dollars = $7,
			days_held = $8,
			r_multiple = $9
		WHERE id = $1 AND status = 'OPEN'
	`

	tag, err := tx.Exec(ctx, query,
		pos.ID, pos.Status, pos.ExitDate, pos.ExitPrice, pos.ExitReason,
		pos.ReturnPct, pos.ReturnDollars, pos.DaysHeld, pos.RMultiple,
	)
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %d is not open", pos.ID)
	}

	if err := setCash(ctx, tx, newCash); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateTrailing persists a trailing-stop raise for an open position.
func (r *Repository) UpdateTrailing(ctx context.Context, id int64, highestPrice, currentStop float64, stopType contracts.StopType) error {
	query := `
		UPDATE trading.positions SET
			highest_price = $2,
			current_stop = $3,
			stop_type = $4
		WHERE id = $1 AND status = 'OPEN'
	`

	tag, err := r.pool.Exec(ctx, query, id, highestPrice, currentStop, stopType)
	if err != nil {
		return fmt.Errorf("failed to update trailing stop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %d is not open", id)
	}
	return nil
}

// OpenPositions loads all OPEN positions ordered by entry date.
func (r *Repository) OpenPositions(ctx context.Context) ([]contracts.Position, error) {
	query := positionSelect + ` WHERE status = 'OPEN' ORDER BY entry_date`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ClosedTrades loads recently closed positions, newest exit first. A limit
// of zero loads all of them.
func (r *Repository) ClosedTrades(ctx context.Context, limit int) ([]contracts.Position, error) {
	query := positionSelect + ` WHERE status = 'CLOSED' ORDER BY exit_date DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// Cash loads the persisted cash balance.
func (r *Repository) Cash(ctx context.Context) (decimal.Decimal, bool, error) {
	var cash decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT balance FROM trading.cash WHERE id = 1`).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query cash balance: %w", err)
	}
	return cash, true, nil
}

// InitCash seeds the ledger with the starting capital.
func (r *Repository) InitCash(ctx context.Context, cash decimal.Decimal) error {
	query := `
		INSERT INTO trading.cash (id, balance, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, cash); err != nil {
		return fmt.Errorf("failed to initialize cash balance: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the daily equity-curve row for its date.
func (r *Repository) SaveSnapshot(ctx context.Context, snap *contracts.PortfolioSnapshot) error {
	query := `
		INSERT INTO trading.portfolio_snapshots (
			snapshot_date, cash_balance, positions_value, total_value,
			open_positions, daily_pnl, daily_pnl_pct, total_return_pct,
			max_drawdown_pct, peak_value, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			cash_balance = EXCLUDED.cash_balance,
			positions_value = EXCLUDED.positions_value,
			total_value = EXCLUDED.total_value,
			open_positions = EXCLUDED.open_positions,
			daily_pnl = EXCLUDED.daily_pnl,
			daily_pnl_pct = EXCLUDED.daily_pnl_pct,
			total_return_pct = EXCLUDED.total_return_pct,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			peak_value = EXCLUDED.peak_value,
			created_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		snap.Date, snap.CashBalance, snap.PositionsValue, snap.TotalValue,
		snap.OpenPositions, snap.DailyPnL, snap.DailyPnLPct, snap.TotalReturnPct,
		snap.MaxDrawdownPct, snap.PeakValue,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none.
func (r *Repository) LatestSnapshot(ctx context.Context) (*contracts.PortfolioSnapshot, error) {
	query := `
		SELECT snapshot_date, cash_balance, positions_value, total_value,
		       open_positions, daily_pnl, daily_pnl_pct, total_return_pct,
		       max_drawdown_pct, peak_value
		FROM trading.portfolio_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var snap contracts.PortfolioSnapshot
	err := r.pool.QueryRow(ctx, query).Scan(
		&snap.Date, &snap.CashBalance, &snap.PositionsValue, &snap.TotalValue,
		&snap.OpenPositions, &snap.DailyPnL, &snap.DailyPnLPct, &snap.TotalReturnPct,
		&snap.MaxDrawdownPct, &snap.PeakValue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return &snap, nil
}

const positionSelect = `
	SELECT id, ticker, entry_date, entry_price, shares, entry_value,
	       initial_stop, current_stop, stop_type, target_price, highest_price,
	       status, COALESCE(source, ''), COALESCE(notes, ''),
	       exit_date, exit_price, COALESCE(exit_reason, ''),
	       COALESCE(return_pct, 0), COALESCE(return_dollars, 0),
	       COALESCE(days_held, 0), COALESCE(r_multiple, 0)
	FROM trading.positions`

func scanPositions(rows pgx.Rows) ([]contracts.Position, error) {
	var positions []contracts.Position
	for rows.Next() {
		var pos contracts.Position
		err := rows.Scan(
			&pos.ID, &pos.Ticker, &pos.EntryDate, &pos.EntryPrice, &pos.Shares, &pos.EntryValue,
			&pos.InitialStop, &pos.CurrentStop, &pos.StopType, &pos.TargetPrice, &pos.HighestPrice,
			&pos.Status, &pos.Source, &pos.Notes,
			&pos.ExitDate, &pos.ExitPrice, &pos.ExitReason,
			&pos.ReturnPct, &pos.ReturnDollars, &pos.DaysHeld, &pos.RMultiple,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	return positions, nil
}

func setCash(ctx context.Context, tx pgx.Tx, balance decimal.Decimal) error {
	query := `
		INSERT INTO trading.cash (id, balance, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, balance); err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}
	return nil
}
