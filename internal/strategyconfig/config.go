// Package strategyconfig holds the immutable threshold configuration for
// the scoring and trading pipeline. Components receive the value at
// construction; nothing reads thresholds from globals.
package strategyconfig

import "time"

// Config is the full strategy configuration, loaded once from YAML and
// passed by value into each component.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Quality   Quality   `yaml:"quality" json:"quality"`
	Selection Selection `yaml:"selection" json:"selection"`
	Trading   Trading   `yaml:"trading" json:"trading"`
}

// Meta identifies the strategy for audit snapshots.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    int    `yaml:"version" json:"version"`
}

// Scoring holds the component scorer thresholds.
type Scoring struct {
	InsiderMin          int     `yaml:"insider_min" json:"insider_min"`
	OptionsMin          int     `yaml:"options_min" json:"options_min"`
	SocialMin           int     `yaml:"social_min" json:"social_min"`
	InsiderLookbackDays int     `yaml:"insider_lookback_days" json:"insider_lookback_days"`
	MinInsiderPurchase  float64 `yaml:"min_insider_purchase" json:"min_insider_purchase"`
	MinOptionsAvgVolume float64 `yaml:"min_options_avg_volume" json:"min_options_avg_volume"`
	MinOpenInterest     int64   `yaml:"min_open_interest" json:"min_open_interest"`
}

// InsiderLookback returns the lookback window as a duration.
func (s Scoring) InsiderLookback() time.Duration {
	return time.Duration(s.InsiderLookbackDays) * 24 * time.Hour
}

// Quality holds the hard eligibility gates applied before any scoring.
type Quality struct {
	MinStockPrice float64 `yaml:"min_stock_price" json:"min_stock_price"`
	MinMarketCap  float64 `yaml:"min_market_cap" json:"min_market_cap"`
	MinAvgVolume  int64   `yaml:"min_avg_volume" json:"min_avg_volume"`
}

// Selection holds the stock-of-the-day quality bar.
type Selection struct {
	SOTDMinScore             int `yaml:"sotd_min_score" json:"sotd_min_score"`
	MinActiveSignals         int `yaml:"min_active_signals" json:"min_active_signals"`
	MinInsiderOrOptionsScore int `yaml:"min_insider_or_options_score" json:"min_insider_or_options_score"`
}

// Trading holds the paper-trading risk parameters.
type Trading struct {
	StartingCapital  float64 `yaml:"starting_capital" json:"starting_capital"`
	MaxPositions     int     `yaml:"max_positions" json:"max_positions"`
	MaxRiskPerTrade  float64 `yaml:"max_risk_per_trade" json:"max_risk_per_trade"`
	MaxPositionPct   float64 `yaml:"max_position_pct" json:"max_position_pct"`
	DefaultStopPct   float64 `yaml:"default_stop_pct" json:"default_stop_pct"`
	DefaultTargetPct float64 `yaml:"default_target_pct" json:"default_target_pct"`
	BreakevenTrigger float64 `yaml:"breakeven_trigger_pct" json:"breakeven_trigger_pct"`
	TrailingTrigger  float64 `yaml:"trailing_trigger_pct" json:"trailing_trigger_pct"`
	TrailingStopPct  float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct"`
}

// Default returns the validated default strategy configuration.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_event_v1",
			Version:    1,
		},
		Scoring: Scoring{
			InsiderMin:          15,
			OptionsMin:          15,
			SocialMin:           10,
			InsiderLookbackDays: 14,
			MinInsiderPurchase:  50_000,
			MinOptionsAvgVolume: 500,
			MinOpenInterest:     1000,
		},
		Quality: Quality{
			MinStockPrice: 5.00,
			MinMarketCap:  500_000_000,
			MinAvgVolume:  500_000,
		},
		Selection: Selection{
			SOTDMinScore:             35,
			MinActiveSignals:         2,
			MinInsiderOrOptionsScore: 10,
		},
		Trading: Trading{
			StartingCapital:  100_000,
			MaxPositions:     5,
			MaxRiskPerTrade:  0.02,
			MaxPositionPct:   0.20,
			DefaultStopPct:   0.10,
			DefaultTargetPct: 0.20,
			BreakevenTrigger: 0.05,
			TrailingTrigger:  0.10,
			TrailingStopPct:  0.10,
		},
	}
}
