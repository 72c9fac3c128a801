// Package combiner merges the component scores into per-ticker trade
// decisions and selects the stock of the day.
package combiner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/quality"
	"github.com/wonny/radar/internal/signals"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// Combiner runs the three scorers over a ticker's activity and applies
// the decision tree.
type Combiner struct {
	cfg *strategyconfig.Config

	insider *signals.InsiderScorer
	options *signals.OptionsScorer
	social  *signals.SocialScorer

	activity   contracts.ActivityRepository
	signalRepo contracts.SignalRepository

	logger *logger.Logger
}

// NewCombiner creates a new signal combiner.
func NewCombiner(
	cfg *strategyconfig.Config,
	activity contracts.ActivityRepository,
	signalRepo contracts.SignalRepository,
	log *logger.Logger,
) *Combiner {
	return &Combiner{
		cfg:        cfg,
		insider:    signals.NewInsiderScorer(cfg.Scoring, log),
		options:    signals.NewOptionsScorer(cfg.Scoring, log),
		social:     signals.NewSocialScorer(cfg.Scoring, log),
		activity:   activity,
		signalRepo: signalRepo,
		logger:     log,
	}
}

// Combine scores one ticker for the date and makes the trade decision.
// currentPrice and atr are optional; trade parameters are only set when a
// price is supplied and the decision is TRADE.
//
// Decision tree, first matching branch wins:
//  1. primary (insider or options over minimum) with social confirmation -> TRADE / A
//  2. primary alone -> WATCH / B
//  3. insider or options >= 10 -> WATCH / C
//  4. otherwise NONE
func (c *Combiner) Combine(
	ctx context.Context,
	ticker string,
	date time.Time,
	currentPrice, atr *float64,
) (*contracts.CombinedSignal, error) {
	since := date.AddDate(0, 0, -c.cfg.Scoring.InsiderLookbackDays)

	insiderActivity, err := c.activity.InsiderActivity(ctx, ticker, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load insider activity for %s: %w", ticker, err)
	}
	optionsActivity, err := c.activity.OptionsActivity(ctx, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load options activity for %s: %w", ticker, err)
	}
	socialActivity, err := c.activity.SocialActivity(ctx, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load social activity for %s: %w", ticker, err)
	}

	insider := c.insider.Score(insiderActivity)
	insider.Ticker = ticker
	options := c.options.Score(optionsActivity)
	options.Ticker = ticker
	social := c.social.Score(socialActivity)
	social.Ticker = ticker

	totalScore := insider.Score + options.Score + social.Score

	action := contracts.ActionNone
	tier := contracts.TierC
	var notes []string

	hasPrimary := insider.Score >= c.cfg.Scoring.InsiderMin || options.Score >= c.cfg.Scoring.OptionsMin
	hasSocialConfirmation := social.Score >= c.cfg.Scoring.SocialMin

	switch {
	case hasPrimary && hasSocialConfirmation:
		action = contracts.ActionTrade
		tier = contracts.TierA
		if insider.Score >= c.cfg.Scoring.InsiderMin {
			notes = append(notes, "Strong insider buying")
		}
		if options.Score >= c.cfg.Scoring.OptionsMin {
			notes = append(notes, "Unusual options activity")
		}
		notes = append(notes, "Social confirmation")

	case hasPrimary:
		action = contracts.ActionWatch
		tier = contracts.TierB
		if insider.Score >= c.cfg.Scoring.InsiderMin {
			notes = append(notes, "Insider buying (needs social confirmation)")
		}
		if options.Score >= c.cfg.Scoring.OptionsMin {
			notes = append(notes, "Options activity (needs social confirmation)")
		}

	case insider.Score >= 10 || options.Score >= 10:
		action = contracts.ActionWatch
		tier = contracts.TierC
		notes = append(notes, "Moderate signal - monitoring")
	}

	positionSize := contracts.SizeNone
	if action == contracts.ActionTrade {
		switch {
		case totalScore >= 60:
			positionSize = contracts.SizeFull
		case totalScore >= 45:
			positionSize = contracts.SizeHalf
		default:
			positionSize = contracts.SizeQuarter
		}
	}

	signal := &contracts.CombinedSignal{
		Ticker:       ticker,
		Date:         date,
		Insider:      insider,
		Options:      options,
		Social:       social,
		TotalScore:   totalScore,
		Action:       action,
		Tier:         tier,
		PositionSize: positionSize,
		Notes:        "No significant signals",
	}
	if len(notes) > 0 {
		signal.Notes = strings.Join(notes, "; ")
	}

	if currentPrice != nil {
		signal.EntryPrice = roundPtr(*currentPrice)
		if action == contracts.ActionTrade {
			if atr != nil && *atr > 0 {
				signal.StopPrice = roundPtr(*currentPrice - 2**atr)
				signal.TargetPrice = roundPtr(*currentPrice + 3**atr)
			} else {
				signal.StopPrice = roundPtr(*currentPrice * (1 - c.cfg.Trading.DefaultStopPct))
				signal.TargetPrice = roundPtr(*currentPrice * (1 + c.cfg.Trading.DefaultTargetPct))
			}
		}
	}

	return signal, nil
}

// DailyResult is the outcome of one full daily scoring run.
type DailyResult struct {
	Signals  []contracts.CombinedSignal
	Rejected []contracts.Rejection
	Decision *contracts.DayDecision
}

// RunDaily executes the daily pipeline: universe, quality filter, per-
// ticker scoring, stock-of-the-day selection, decision trace persistence.
// A single ticker's scoring error is recorded and skipped; the batch
// continues.
func (c *Combiner) RunDaily(
	ctx context.Context,
	date time.Time,
	filter *quality.Filter,
	selector *Selector,
	decisions contracts.DecisionRepository,
) (*DailyResult, error) {
	insiderSince := date.AddDate(0, 0, -c.cfg.Scoring.InsiderLookbackDays)
	universe, err := c.activity.ScoringUniverse(ctx, date, insiderSince)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring universe: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"universe": len(universe),
	}).Info("Starting daily scoring")

	passed, rejected := filter.FilterUniverse(ctx, universe)

	scored := make([]contracts.CombinedSignal, 0, len(passed))
	for _, ticker := range passed {
		signal, err := c.Combine(ctx, ticker, date, nil, nil)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Error("Scoring failed for ticker")
			continue
		}
		if err := c.signalRepo.UpsertSignal(ctx, signal); err != nil {
			c.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Error("Failed to save signal")
			continue
		}
		scored = append(scored, *signal)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	pick, reason := selector.Select(scored)
	decision := selector.BuildDecision(date, pick, reason, scored, rejected)
	if err := decisions.SaveDecision(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to save day decision: %w", err)
	}

	selector.LogDecision(scored, rejected, pick, reason)

	return &DailyResult{Signals: scored, Rejected: rejected, Decision: decision}, nil
}

// roundPtr rounds a monetary value to cents. decimal avoids the float
// artifacts of math.Round(v*100)/100 on prices like 19.985.
func roundPtr(v float64) *float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return &rounded
}
