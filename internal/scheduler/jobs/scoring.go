// Package jobs holds the scheduled pipeline jobs: the post-close scoring
// run and the paper-portfolio stop check.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/radar/internal/combiner"
	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/quality"
	"github.com/wonny/radar/pkg/logger"
)

// ScoringJob runs the full daily scoring pipeline after the close, once
// the collectors have written the day's activity.
type ScoringJob struct {
	combiner  *combiner.Combiner
	filter    *quality.Filter
	selector  *combiner.Selector
	decisions contracts.DecisionRepository
	logger    *logger.Logger
}

// NewScoringJob creates the daily scoring job.
func NewScoringJob(
	c *combiner.Combiner,
	filter *quality.Filter,
	selector *combiner.Selector,
	decisions contracts.DecisionRepository,
	log *logger.Logger,
) *ScoringJob {
	return &ScoringJob{
		combiner:  c,
		filter:    filter,
		selector:  selector,
		decisions: decisions,
		logger:    log,
	}
}

func (j *ScoringJob) Name() string {
	return "daily_scoring"
}

// Schedule runs at 5:30 PM on weekdays, after the collectors finish.
func (j *ScoringJob) Schedule() string {
	return "0 30 17 * * 1-5"
}

func (j *ScoringJob) Run(ctx context.Context) error {
	date := time.Now().Truncate(24 * time.Hour)

	result, err := j.combiner.RunDaily(ctx, date, j.filter, j.selector, j.decisions)
	if err != nil {
		return fmt.Errorf("daily scoring failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"scored":   len(result.Signals),
		"rejected": len(result.Rejected),
		"has_pick": result.Decision.HasPick,
	}).Info("Daily scoring run complete")

	return nil
}
