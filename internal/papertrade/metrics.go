package papertrade

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/wonny/radar/internal/contracts"
)

// PerformanceMetrics aggregates every closed trade into win rate, profit
// factor, average R-multiple, and best/worst trades, plus the equity-curve
// drawdown from the latest snapshot.
func (e *Engine) PerformanceMetrics(ctx context.Context) (*contracts.PerformanceMetrics, error) {
	closed, err := e.store.ClosedTrades(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load closed trades: %w", err)
	}

	m := &contracts.PerformanceMetrics{TotalTrades: len(closed)}

	var wins, losses, rMultiples stats.Float64Data
	grossProfit, grossLoss := 0.0, 0.0
	for i := range closed {
		t := &closed[i]
		m.TotalReturn += t.ReturnDollars
		rMultiples = append(rMultiples, t.RMultiple)

		if t.ReturnDollars > 0 {
			m.WinningTrades++
			wins = append(wins, t.ReturnPct)
			grossProfit += t.ReturnDollars
		} else {
			m.LosingTrades++
			losses = append(losses, t.ReturnPct)
			grossLoss += -t.ReturnDollars
		}

		if m.BestTrade == nil || t.ReturnPct > m.BestTrade.ReturnPct {
			m.BestTrade = t
		}
		if m.WorstTrade == nil || t.ReturnPct < m.WorstTrade.ReturnPct {
			m.WorstTrade = t
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = round2(float64(m.WinningTrades) / float64(m.TotalTrades) * 100)
		if avg, err := stats.Mean(rMultiples); err == nil {
			m.AvgRMultiple = round2(avg)
		}
	}
	if avg, err := stats.Mean(wins); err == nil {
		m.AvgWin = round2(avg)
	}
	if avg, err := stats.Mean(losses); err == nil {
		m.AvgLoss = round2(avg)
	}
	if grossLoss > 0 {
		m.ProfitFactor = round2(grossProfit / grossLoss)
	} else if grossProfit > 0 {
		m.ProfitFactor = grossProfit
	}

	m.TotalReturn = round2(m.TotalReturn)
	m.TotalReturnPct = round2(m.TotalReturn / e.cfg.StartingCapital * 100)

	if snap, err := e.store.LatestSnapshot(ctx); err == nil && snap != nil {
		m.MaxDrawdownPct = snap.MaxDrawdownPct
	}

	return m, nil
}

// TakeSnapshot records today's equity-curve row: total value, daily P&L
// against the previous snapshot, and running peak/drawdown. One row per
// date; re-running on the same date overwrites.
func (e *Engine) TakeSnapshot(ctx context.Context, date time.Time, currentPrices map[string]float64) (*contracts.PortfolioSnapshot, error) {
	status, err := e.PortfolioStatus(ctx, currentPrices)
	if err != nil {
		return nil, err
	}

	snap := &contracts.PortfolioSnapshot{
		Date:           date,
		CashBalance:    status.Cash,
		PositionsValue: status.PositionsValue,
		TotalValue:     status.TotalValue,
		OpenPositions:  status.NumPositions,
		TotalReturnPct: round2((status.TotalValue - e.cfg.StartingCapital) / e.cfg.StartingCapital * 100),
		PeakValue:      status.TotalValue,
	}

	prev, err := e.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	if prev != nil {
		snap.DailyPnL = round2(status.TotalValue - prev.TotalValue)
		if prev.TotalValue > 0 {
			snap.DailyPnLPct = round2(snap.DailyPnL / prev.TotalValue * 100)
		}
		if prev.PeakValue > snap.PeakValue {
			snap.PeakValue = prev.PeakValue
		}
	}
	if snap.PeakValue > 0 {
		snap.MaxDrawdownPct = round2((snap.PeakValue - status.TotalValue) / snap.PeakValue * 100)
	}
	if prev != nil && prev.MaxDrawdownPct > snap.MaxDrawdownPct {
		snap.MaxDrawdownPct = prev.MaxDrawdownPct
	}

	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"date":        date.Format("2006-01-02"),
		"total_value": snap.TotalValue,
		"daily_pnl":   snap.DailyPnL,
	}).Info("Saved portfolio snapshot")

	return snap, nil
}
