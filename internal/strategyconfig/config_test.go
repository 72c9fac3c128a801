package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStrategy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
meta:
  strategy_id: test_v1
  version: 1
scoring:
  insider_min: 15
  options_min: 15
  social_min: 10
  insider_lookback_days: 14
  min_insider_purchase: 50000
  min_options_avg_volume: 500
  min_open_interest: 1000
quality:
  min_stock_price: 5.00
  min_market_cap: 500000000
  min_avg_volume: 500000
selection:
  sotd_min_score: 35
  min_active_signals: 2
  min_insider_or_options_score: 10
trading:
  starting_capital: 100000
  max_positions: 5
  max_risk_per_trade: 0.02
  max_position_pct: 0.20
  default_stop_pct: 0.10
  default_target_pct: 0.20
  breakeven_trigger_pct: 0.05
  trailing_trigger_pct: 0.10
  trailing_stop_pct: 0.10
`

func TestLoad(t *testing.T) {
	path := writeStrategy(t, validYAML)

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	assert.Equal(t, "test_v1", cfg.Meta.StrategyID)
	assert.Equal(t, 15, cfg.Scoring.InsiderMin)
	assert.Equal(t, 14, cfg.Scoring.InsiderLookbackDays)
	assert.Equal(t, 5.00, cfg.Quality.MinStockPrice)
	assert.Equal(t, 35, cfg.Selection.SOTDMinScore)
	assert.Equal(t, 100_000.0, cfg.Trading.StartingCapital)
	assert.Equal(t, 0.02, cfg.Trading.MaxRiskPerTrade)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	// A typo must fail loudly, not silently default.
	path := writeStrategy(t, validYAML+"\nscorring_extra: 1\n")

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "strategy_id"},
		{"insider min over ceiling", func(c *Config) { c.Scoring.InsiderMin = 31 }, "insider_min"},
		{"negative social min", func(c *Config) { c.Scoring.SocialMin = -1 }, "social_min"},
		{"zero lookback", func(c *Config) { c.Scoring.InsiderLookbackDays = 0 }, "lookback"},
		{"sotd over ceiling", func(c *Config) { c.Selection.SOTDMinScore = 80 }, "sotd_min_score"},
		{"zero capital", func(c *Config) { c.Trading.StartingCapital = 0 }, "starting_capital"},
		{"risk over 1", func(c *Config) { c.Trading.MaxRiskPerTrade = 1.5 }, "max_risk_per_trade"},
		{"stop pct at 1", func(c *Config) { c.Trading.DefaultStopPct = 1 }, "default_stop_pct"},
		{
			"breakeven after trailing",
			func(c *Config) { c.Trading.BreakevenTrigger = 0.2 },
			"breakeven_trigger_pct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestHash(t *testing.T) {
	a := Default()
	b := Default()

	hashA, err := Hash(a)
	require.NoError(t, err)
	hashB, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB, "identical configs must hash identically")
	assert.Len(t, hashA, 64)

	b.Scoring.InsiderMin = 20
	hashB, err = Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB, "a changed threshold must change the hash")
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}
