// Package activity reads the collector-maintained activity tables:
// insider purchases, options flow, social metrics, and ticker stats. The
// scoring pipeline only reads these tables; the collectors own the writes.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/radar/internal/contracts"
)

// Repository is the Postgres-backed activity reader.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ contracts.ActivityRepository  = (*Repository)(nil)
	_ contracts.TickerStatsProvider = (*Repository)(nil)
)

// InsiderActivity returns a ticker's open-market purchases since the
// cutoff, largest first, or nil when the window has none.
func (r *Repository) InsiderActivity(ctx context.Context, ticker string, since time.Time) (*contracts.InsiderActivity, error) {
	query := `
		SELECT insider_name, COALESCE(insider_title, ''), shares, price_per_share, total_value, trade_date
		FROM signals.insider_trades
		WHERE ticker = $1
		  AND transaction_type = 'P'
		  AND trade_date >= $2
		ORDER BY total_value DESC
	`

	rows, err := r.pool.Query(ctx, query, ticker, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query insider trades: %w", err)
	}
	defer rows.Close()

	var trades []contracts.InsiderTrade
	for rows.Next() {
		var t contracts.InsiderTrade
		err := rows.Scan(&t.InsiderName, &t.InsiderTitle, &t.Shares, &t.PricePerShare, &t.TotalValue, &t.TradeDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insider trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read insider trades: %w", err)
	}

	if len(trades) == 0 {
		return nil, nil
	}
	return &contracts.InsiderActivity{Ticker: ticker, Trades: trades}, nil
}

// OptionsActivity returns the day's options flow summary, or nil when no
// row exists for (ticker, date).
func (r *Repository) OptionsActivity(ctx context.Context, ticker string, date time.Time) (*contracts.OptionsActivity, error) {
	query := `
		SELECT call_volume, put_volume, call_oi, put_oi,
		       avg_call_volume_20d, avg_put_volume_20d,
		       call_volume_ratio, put_call_ratio, unusual_calls, unusual_puts
		FROM signals.options_flow
		WHERE ticker = $1 AND flow_date = $2
	`

	act := contracts.OptionsActivity{Ticker: ticker, Date: date}
	err := r.pool.QueryRow(ctx, query, ticker, date).Scan(
		&act.CallVolume, &act.PutVolume, &act.CallOpenInterest, &act.PutOpenInterest,
		&act.AvgCallVolume20D, &act.AvgPutVolume20D,
		&act.CallVolumeRatio, &act.PutCallRatio, &act.UnusualCalls, &act.UnusualPuts,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query options flow: %w", err)
	}
	return &act, nil
}

// SocialActivity returns the day's social metrics, or nil when no row
// exists for (ticker, date).
func (r *Repository) SocialActivity(ctx context.Context, ticker string, date time.Time) (*contracts.SocialActivity, error) {
	query := `
		SELECT reddit_mentions, reddit_sentiment, reddit_velocity,
		       stocktwits_mentions, stocktwits_sentiment, stocktwits_velocity,
		       combined_velocity, bullish_ratio
		FROM signals.social_metrics
		WHERE ticker = $1 AND metric_date = $2
	`

	act := contracts.SocialActivity{Ticker: ticker, Date: date}
	err := r.pool.QueryRow(ctx, query, ticker, date).Scan(
		&act.RedditMentions, &act.RedditSentiment, &act.RedditVelocity,
		&act.StocktwitsMentions, &act.StocktwitsSentiment, &act.StocktwitsVelocity,
		&act.CombinedVelocity, &act.BullishRatio,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query social metrics: %w", err)
	}
	return &act, nil
}

// ScoringUniverse returns the distinct tickers with any activity worth
// scoring: insider purchases inside the lookback window, an options flow
// row for the date, or social mentions for the date.
func (r *Repository) ScoringUniverse(ctx context.Context, date time.Time, insiderSince time.Time) ([]string, error) {
	query := `
		SELECT ticker FROM signals.insider_trades
		WHERE transaction_type = 'P' AND trade_date >= $2
		UNION
		SELECT ticker FROM signals.options_flow WHERE flow_date = $1
		UNION
		SELECT ticker FROM signals.social_metrics
		WHERE metric_date = $1 AND reddit_mentions + stocktwits_mentions > 0
		ORDER BY ticker
	`

	rows, err := r.pool.Query(ctx, query, date, insiderSince)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoring universe: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scoring universe: %w", err)
	}
	return tickers, nil
}

// TickerStats returns the quality-gate facts for a ticker. No row is an
// error: the quality filter treats an unverifiable ticker as a rejection.
func (r *Repository) TickerStats(ctx context.Context, ticker string) (*contracts.TickerStats, error) {
	query := `
		SELECT price, market_cap, avg_volume
		FROM signals.ticker_stats
		WHERE ticker = $1
	`

	stats := contracts.TickerStats{Ticker: ticker}
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&stats.Price, &stats.MarketCap, &stats.AvgVolume)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no market data for %s", ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker stats: %w", err)
	}
	return &stats, nil
}
