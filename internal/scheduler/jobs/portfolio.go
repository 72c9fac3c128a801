package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/papertrade"
	"github.com/wonny/radar/pkg/logger"
)

// StopCheckJob sweeps open paper positions against the latest collector
// prices: stop exits, target exits, trailing-stop raises.
type StopCheckJob struct {
	engine *papertrade.Engine
	stats  contracts.TickerStatsProvider
	logger *logger.Logger
}

// NewStopCheckJob creates the stop-check job.
func NewStopCheckJob(engine *papertrade.Engine, stats contracts.TickerStatsProvider, log *logger.Logger) *StopCheckJob {
	return &StopCheckJob{engine: engine, stats: stats, logger: log}
}

func (j *StopCheckJob) Name() string {
	return "stop_check"
}

// Schedule runs at 4:15 PM on weekdays, right after the close.
func (j *StopCheckJob) Schedule() string {
	return "0 15 16 * * 1-5"
}

func (j *StopCheckJob) Run(ctx context.Context) error {
	prices, err := openPositionPrices(ctx, j.engine, j.stats, j.logger)
	if err != nil {
		return err
	}

	triggered, err := j.engine.CheckStopsAndTargets(ctx, prices)
	if err != nil {
		return fmt.Errorf("stop check failed: %w", err)
	}

	for _, t := range triggered {
		j.logger.WithFields(map[string]interface{}{
			"trade_id":   t.TradeID,
			"ticker":     t.Ticker,
			"reason":     string(t.Reason),
			"return_pct": t.ReturnPct,
		}).Info("Exit triggered")
	}

	return nil
}

// SnapshotJob records the daily equity-curve row after the stop check.
type SnapshotJob struct {
	engine *papertrade.Engine
	stats  contracts.TickerStatsProvider
	logger *logger.Logger
}

// NewSnapshotJob creates the snapshot job.
func NewSnapshotJob(engine *papertrade.Engine, stats contracts.TickerStatsProvider, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{engine: engine, stats: stats, logger: log}
}

func (j *SnapshotJob) Name() string {
	return "portfolio_snapshot"
}

// Schedule runs at 4:45 PM on weekdays, after the stop check.
func (j *SnapshotJob) Schedule() string {
	return "0 45 16 * * 1-5"
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	prices, err := openPositionPrices(ctx, j.engine, j.stats, j.logger)
	if err != nil {
		return err
	}

	date := time.Now().Truncate(24 * time.Hour)
	if _, err := j.engine.TakeSnapshot(ctx, date, prices); err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	return nil
}

// openPositionPrices fetches the latest collector price for every open
// position's ticker. A missing quote is logged and skipped; the engine
// leaves those positions untouched.
func openPositionPrices(ctx context.Context, engine *papertrade.Engine, stats contracts.TickerStatsProvider, log *logger.Logger) (map[string]float64, error) {
	status, err := engine.PortfolioStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load open positions: %w", err)
	}

	prices := make(map[string]float64, len(status.OpenPositions))
	for _, pos := range status.OpenPositions {
		if _, ok := prices[pos.Ticker]; ok {
			continue
		}
		st, err := stats.TickerStats(ctx, pos.Ticker)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"ticker": pos.Ticker,
				"error":  err.Error(),
			}).Warn("No price for open position, skipping")
			continue
		}
		prices[pos.Ticker] = st.Price
	}
	return prices, nil
}
