package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

func newOptionsScorer() *OptionsScorer {
	return NewOptionsScorer(strategyconfig.Default().Scoring, logger.NewNop())
}

// liquidFlow returns a flow summary that clears both liquidity gates.
func liquidFlow() *contracts.OptionsActivity {
	return &contracts.OptionsActivity{
		Ticker:           "ACME",
		CallVolume:       5000,
		PutVolume:        1000,
		CallOpenInterest: 8000,
		PutOpenInterest:  2000,
		AvgCallVolume20D: 1000,
		AvgPutVolume20D:  500,
		CallVolumeRatio:  1.0,
		PutCallRatio:     1.0,
	}
}

func TestOptionsScorer_VolumeBands(t *testing.T) {
	scorer := newOptionsScorer()

	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"5x and above", 6.0, 18},
		{"exactly 5x", 5.0, 18},
		{"3x to 5x", 3.5, 12},
		{"2x to 3x", 2.2, 8},
		{"below 2x", 1.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := liquidFlow()
			flow.CallVolumeRatio = tt.ratio
			signal := scorer.Score(flow)
			assert.Equal(t, tt.want, signal.Score)
		})
	}
}

func TestOptionsScorer_LiquidityGate(t *testing.T) {
	scorer := newOptionsScorer()

	// Thin average volume zeroes the score even with an extreme ratio.
	flow := liquidFlow()
	flow.AvgCallVolume20D = 200
	flow.AvgPutVolume20D = 100
	flow.CallVolumeRatio = 8.0
	signal := scorer.Score(flow)
	assert.Equal(t, 0, signal.Score)
	assert.Equal(t, "Options too illiquid (avg volume 300 < 500)", signal.Reason)
	// Raw fields still ride along for the dashboard.
	assert.Equal(t, 8.0, signal.CallVolumeRatio)

	// Low open interest fails the second gate.
	flow = liquidFlow()
	flow.CallOpenInterest = 400
	flow.PutOpenInterest = 100
	flow.CallVolumeRatio = 8.0
	signal = scorer.Score(flow)
	assert.Equal(t, 0, signal.Score)
	assert.Equal(t, "Insufficient open interest (500 < 1000)", signal.Reason)
}

func TestOptionsScorer_Bonuses(t *testing.T) {
	scorer := newOptionsScorer()

	// Low put/call adds +4 on top of the band.
	flow := liquidFlow()
	flow.CallVolumeRatio = 3.0
	flow.PutCallRatio = 0.3
	signal := scorer.Score(flow)
	assert.Equal(t, 16, signal.Score) // 12 + 4

	// Unusual flag needs a >=2x ratio to count.
	flow = liquidFlow()
	flow.CallVolumeRatio = 1.5
	flow.UnusualCalls = true
	signal = scorer.Score(flow)
	assert.Equal(t, 0, signal.Score)
	assert.False(t, signal.NearTermFocus)

	flow = liquidFlow()
	flow.CallVolumeRatio = 2.5
	flow.UnusualCalls = true
	signal = scorer.Score(flow)
	assert.Equal(t, 11, signal.Score) // 8 + 3
	assert.True(t, signal.NearTermFocus)
}

func TestOptionsScorer_FullHouse(t *testing.T) {
	scorer := newOptionsScorer()

	flow := liquidFlow()
	flow.CallVolumeRatio = 6.0
	flow.PutCallRatio = 0.2
	flow.UnusualCalls = true
	signal := scorer.Score(flow)
	// 18 + 4 + 3 = 25, exactly the ceiling.
	assert.Equal(t, contracts.OptionsMaxScore, signal.Score)
}

func TestOptionsScorer_NoData(t *testing.T) {
	scorer := newOptionsScorer()

	signal := scorer.Score(nil)
	assert.Equal(t, 0, signal.Score)
	assert.Equal(t, "No options data available", signal.Reason)
}
