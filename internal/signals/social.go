package signals

import (
	"fmt"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// SocialScorer scores social-media velocity on a 0-20 scale. Social is a
// confirmation signal, never primary.
type SocialScorer struct {
	cfg    strategyconfig.Scoring
	logger *logger.Logger
}

// NewSocialScorer creates a new social scorer.
func NewSocialScorer(cfg strategyconfig.Scoring, log *logger.Logger) *SocialScorer {
	return &SocialScorer{cfg: cfg, logger: log}
}

// Score converts a social metrics summary into a bounded signal.
//
// Rubric (0-20): combined velocity >=200% +10 or >=100% +6; average
// sentiment > 0.3 +4; bullish ratio > 0.65 +3; mentions on both Reddit
// and Stocktwits +3 for cross-platform confirmation.
func (s *SocialScorer) Score(activity *contracts.SocialActivity) contracts.SocialSignal {
	if activity == nil {
		return contracts.SocialSignal{
			BullishRatio: 0.5,
			Reason:       "No social data available",
		}
	}

	score := 0
	var breakdown contracts.Breakdown
	add := func(points int, reason string) {
		score += points
		breakdown = append(breakdown, contracts.BreakdownEntry{Points: points, Reason: reason})
	}

	velocity := activity.CombinedVelocity
	sentiment := activity.AvgSentiment()
	bullish := activity.BullishRatio

	switch {
	case velocity >= 200:
		add(10, fmt.Sprintf("Velocity %.0f%% (>200%%)", velocity))
	case velocity >= 100:
		add(6, fmt.Sprintf("Velocity %.0f%% (>100%%)", velocity))
	}

	if sentiment > 0.3 {
		add(4, fmt.Sprintf("Positive sentiment (%.2f)", sentiment))
	}

	if bullish > 0.65 {
		add(3, fmt.Sprintf("High bullish ratio (%.0f%%)", bullish*100))
	}

	crossPlatform := activity.RedditMentions > 0 && activity.StocktwitsMentions > 0
	if crossPlatform {
		add(3, "Cross-platform confirmation")
	}

	if score > contracts.SocialMaxScore {
		score = contracts.SocialMaxScore
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":   activity.Ticker,
		"score":    score,
		"velocity": velocity,
	}).Debug("Scored social activity")

	return contracts.SocialSignal{
		Ticker:             activity.Ticker,
		Score:              score,
		RedditMentions:     activity.RedditMentions,
		StocktwitsMentions: activity.StocktwitsMentions,
		CombinedVelocity:   velocity,
		AvgSentiment:       sentiment,
		BullishRatio:       bullish,
		CrossPlatform:      crossPlatform,
		Breakdown:          breakdown,
	}
}
