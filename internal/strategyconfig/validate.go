package strategyconfig

import "fmt"

// Validate rejects configurations that would corrupt scoring or the
// ledger. Thresholds are checked against the score bounds they gate.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return fmt.Errorf("meta.strategy_id is required")
	}

	s := cfg.Scoring
	if s.InsiderMin < 0 || s.InsiderMin > 30 {
		return fmt.Errorf("scoring.insider_min must be in [0, 30], got %d", s.InsiderMin)
	}
	if s.OptionsMin < 0 || s.OptionsMin > 25 {
		return fmt.Errorf("scoring.options_min must be in [0, 25], got %d", s.OptionsMin)
	}
	if s.SocialMin < 0 || s.SocialMin > 20 {
		return fmt.Errorf("scoring.social_min must be in [0, 20], got %d", s.SocialMin)
	}
	if s.InsiderLookbackDays <= 0 {
		return fmt.Errorf("scoring.insider_lookback_days must be positive, got %d", s.InsiderLookbackDays)
	}

	if cfg.Quality.MinStockPrice < 0 {
		return fmt.Errorf("quality.min_stock_price must not be negative")
	}

	sel := cfg.Selection
	if sel.SOTDMinScore < 0 || sel.SOTDMinScore > 75 {
		return fmt.Errorf("selection.sotd_min_score must be in [0, 75], got %d", sel.SOTDMinScore)
	}
	if sel.MinActiveSignals < 0 || sel.MinActiveSignals > 3 {
		return fmt.Errorf("selection.min_active_signals must be in [0, 3], got %d", sel.MinActiveSignals)
	}

	t := cfg.Trading
	if t.StartingCapital <= 0 {
		return fmt.Errorf("trading.starting_capital must be positive, got %v", t.StartingCapital)
	}
	if t.MaxPositions <= 0 {
		return fmt.Errorf("trading.max_positions must be positive, got %d", t.MaxPositions)
	}
	if t.MaxRiskPerTrade <= 0 || t.MaxRiskPerTrade > 1 {
		return fmt.Errorf("trading.max_risk_per_trade must be in (0, 1], got %v", t.MaxRiskPerTrade)
	}
	if t.MaxPositionPct <= 0 || t.MaxPositionPct > 1 {
		return fmt.Errorf("trading.max_position_pct must be in (0, 1], got %v", t.MaxPositionPct)
	}
	if t.DefaultStopPct <= 0 || t.DefaultStopPct >= 1 {
		return fmt.Errorf("trading.default_stop_pct must be in (0, 1), got %v", t.DefaultStopPct)
	}
	if t.DefaultTargetPct <= 0 {
		return fmt.Errorf("trading.default_target_pct must be positive, got %v", t.DefaultTargetPct)
	}
	if t.BreakevenTrigger > t.TrailingTrigger {
		return fmt.Errorf("trading.breakeven_trigger_pct (%v) must not exceed trailing_trigger_pct (%v)",
			t.BreakevenTrigger, t.TrailingTrigger)
	}

	return nil
}
