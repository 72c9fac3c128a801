package signals

import (
	"fmt"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// OptionsScorer scores unusual options flow on a 0-25 scale.
type OptionsScorer struct {
	cfg    strategyconfig.Scoring
	logger *logger.Logger
}

// NewOptionsScorer creates a new options scorer.
func NewOptionsScorer(cfg strategyconfig.Scoring, log *logger.Logger) *OptionsScorer {
	return &OptionsScorer{cfg: cfg, logger: log}
}

// Score converts an options flow summary into a bounded signal.
//
// The liquidity gate runs first: thin average volume or low open interest
// forces a zero score regardless of the ratios, with the failing gate in
// the reason. Otherwise: call volume >=5x average +18, >=3x +12, >=2x +8
// (highest band only); put/call < 0.5 with nonzero call volume +4; the
// unusual-calls flag with a >=2x ratio +3.
func (s *OptionsScorer) Score(activity *contracts.OptionsActivity) contracts.OptionsSignal {
	if activity == nil {
		return contracts.OptionsSignal{Reason: "No options data available"}
	}

	gated := contracts.OptionsSignal{
		Ticker:          activity.Ticker,
		CallVolume:      activity.CallVolume,
		PutVolume:       activity.PutVolume,
		CallVolumeRatio: activity.CallVolumeRatio,
		PutCallRatio:    activity.PutCallRatio,
		UnusualCalls:    activity.UnusualCalls,
	}

	avgVolume := activity.AvgCallVolume20D + activity.AvgPutVolume20D
	if avgVolume < s.cfg.MinOptionsAvgVolume {
		gated.Reason = fmt.Sprintf("Options too illiquid (avg volume %.0f < %.0f)",
			avgVolume, s.cfg.MinOptionsAvgVolume)
		s.logger.WithFields(map[string]interface{}{
			"ticker":     activity.Ticker,
			"avg_volume": avgVolume,
		}).Debug("Options liquidity gate failed")
		return gated
	}

	openInterest := activity.CallOpenInterest + activity.PutOpenInterest
	if openInterest < s.cfg.MinOpenInterest {
		gated.Reason = fmt.Sprintf("Insufficient open interest (%d < %d)",
			openInterest, s.cfg.MinOpenInterest)
		s.logger.WithFields(map[string]interface{}{
			"ticker":        activity.Ticker,
			"open_interest": openInterest,
		}).Debug("Open interest gate failed")
		return gated
	}

	score := 0
	var breakdown contracts.Breakdown
	add := func(points int, reason string) {
		score += points
		breakdown = append(breakdown, contracts.BreakdownEntry{Points: points, Reason: reason})
	}

	ratio := activity.CallVolumeRatio
	switch {
	case ratio >= 5.0:
		add(18, fmt.Sprintf("Call volume %.1fx average (>5x)", ratio))
	case ratio >= 3.0:
		add(12, fmt.Sprintf("Call volume %.1fx average (3-5x)", ratio))
	case ratio >= 2.0:
		add(8, fmt.Sprintf("Call volume %.1fx average (2-3x)", ratio))
	}

	if activity.PutCallRatio < 0.5 && activity.CallVolume > 0 {
		add(4, fmt.Sprintf("Low put/call ratio (%.2f)", activity.PutCallRatio))
	}

	nearTermFocus := false
	if activity.UnusualCalls && ratio >= 2.0 {
		add(3, "Unusual call activity")
		nearTermFocus = true
	}

	if score > contracts.OptionsMaxScore {
		score = contracts.OptionsMaxScore
	}

	result := gated
	result.Score = score
	result.NearTermFocus = nearTermFocus
	result.Breakdown = breakdown
	result.Reason = ""
	return result
}
