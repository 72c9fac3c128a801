package combiner

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// topCandidateCount is how many candidates the decision trace snapshots.
const topCandidateCount = 5

// rejectedSampleCount is how many quality-gate rejections are kept in the
// trace.
const rejectedSampleCount = 10

// Selector applies the stock-of-the-day quality bar over a day's combined
// signals.
type Selector struct {
	cfg    strategyconfig.Selection
	logger *logger.Logger
}

// NewSelector creates a new stock-of-the-day selector.
func NewSelector(cfg strategyconfig.Selection, log *logger.Logger) *Selector {
	return &Selector{cfg: cfg, logger: log}
}

// Select picks the stock of the day, or returns nil with the reason no
// pick was made. Gates run as a strict waterfall over the highest scorer:
// minimum total score, then active signal count, then at least one strong
// insider or options component. Only the first failing reason is reported.
func (s *Selector) Select(candidates []contracts.CombinedSignal) (*contracts.CombinedSignal, string) {
	if len(candidates) == 0 {
		return nil, "No candidates passed quality filters"
	}

	sorted := make([]contracts.CombinedSignal, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalScore > sorted[j].TotalScore
	})
	top := sorted[0]

	if top.TotalScore < s.cfg.SOTDMinScore {
		return nil, fmt.Sprintf("Best score %d (%s) below minimum %d",
			top.TotalScore, top.Ticker, s.cfg.SOTDMinScore)
	}

	if active := top.ActiveComponents(); active < s.cfg.MinActiveSignals {
		return nil, fmt.Sprintf("%s: Only %d active signal(s), need %d",
			top.Ticker, active, s.cfg.MinActiveSignals)
	}

	if top.Insider.Score < s.cfg.MinInsiderOrOptionsScore &&
		top.Options.Score < s.cfg.MinInsiderOrOptionsScore {
		return nil, fmt.Sprintf("%s: No strong insider (%d) or options (%d) signal (need >= %d)",
			top.Ticker, top.Insider.Score, top.Options.Score, s.cfg.MinInsiderOrOptionsScore)
	}

	return &top, "Meets all quality criteria"
}

// BuildDecision assembles the persisted decision trace for the run.
func (s *Selector) BuildDecision(
	date time.Time,
	pick *contracts.CombinedSignal,
	reason string,
	candidates []contracts.CombinedSignal,
	rejected []contracts.Rejection,
) *contracts.DayDecision {
	sorted := make([]contracts.CombinedSignal, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalScore > sorted[j].TotalScore
	})

	top := sorted
	if len(top) > topCandidateCount {
		top = top[:topCandidateCount]
	}
	topCandidates := make([]contracts.CandidateScore, len(top))
	for i, c := range top {
		topCandidates[i] = contracts.CandidateScore{
			Ticker:       c.Ticker,
			TotalScore:   c.TotalScore,
			InsiderScore: c.Insider.Score,
			OptionsScore: c.Options.Score,
			SocialScore:  c.Social.Score,
		}
	}

	samples := rejected
	if len(samples) > rejectedSampleCount {
		samples = samples[:rejectedSampleCount]
	}

	decision := &contracts.DayDecision{
		SchemaVersion:   contracts.DecisionSchemaVersion,
		Date:            date,
		Reason:          reason,
		CandidateCount:  len(candidates),
		FilteredCount:   len(rejected),
		TopCandidates:   topCandidates,
		RejectedSamples: append([]contracts.Rejection(nil), samples...),
	}
	if pick != nil {
		decision.HasPick = true
		decision.Ticker = pick.Ticker
		decision.Score = pick.TotalScore
	}
	return decision
}

// LogDecision writes the full decision process to the log, for operators
// following a run live. The durable trace is the DayDecision record.
func (s *Selector) LogDecision(
	candidates []contracts.CombinedSignal,
	rejected []contracts.Rejection,
	pick *contracts.CombinedSignal,
	reason string,
) {
	s.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"rejected":   len(rejected),
	}).Info("Stock-of-the-day analysis")

	for i, r := range rejected {
		if i >= rejectedSampleCount {
			s.logger.Infof("... and %d more rejections", len(rejected)-rejectedSampleCount)
			break
		}
		s.logger.WithFields(map[string]interface{}{
			"ticker": r.Ticker,
			"reason": r.Reason,
		}).Info("Rejected by quality gate")
	}

	if pick != nil {
		s.logger.WithFields(map[string]interface{}{
			"ticker": pick.Ticker,
			"score":  pick.TotalScore,
			"reason": reason,
		}).Info("Stock of the day selected")
	} else {
		s.logger.WithField("reason", reason).Info("No trade today")
	}
}
