// Package signals contains the per-source component scorers. Each scorer
// is a pure function of an activity summary; no two scorers share state,
// so they are safe to run in parallel across tickers.
package signals

import (
	"fmt"
	"strings"

	"github.com/wonny/radar/internal/contracts"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/logger"
)

// Insider title categories, strongest first. Validation on six months of
// Form 4 filings showed title is more predictive than buy size: a $200k
// CEO purchase beats a $2M director purchase.
const (
	TitleCEOCFO   = "CEO/CFO"
	TitleCSuite   = "C-Suite"
	TitleDirector = "Director"
	TitleOther    = "Other"
)

// ClassifyInsiderTitle buckets a Form 4 title string. CEO/CFO patterns are
// checked first, then DIRECTOR before the remaining C-suite patterns so
// "DIRECTOR" never matches the "CTO" substring.
func ClassifyInsiderTitle(title string) string {
	if title == "" {
		return TitleOther
	}

	upper := strings.ToUpper(title)

	for _, pattern := range []string{"CEO", "CHIEF EXECUTIVE", "PRINCIPAL EXECUTIVE"} {
		if strings.Contains(upper, pattern) {
			return TitleCEOCFO
		}
	}
	for _, pattern := range []string{"CFO", "CHIEF FINANCIAL", "PRINCIPAL FINANCIAL"} {
		if strings.Contains(upper, pattern) {
			return TitleCEOCFO
		}
	}

	if strings.Contains(upper, "DIRECTOR") {
		return TitleDirector
	}

	for _, pattern := range []string{
		"COO", "CHIEF OPERATING",
		"CTO", "CHIEF TECHNOLOGY",
		"CMO", "CHIEF MARKETING",
		"CIO", "CHIEF INFORMATION",
		"CHIEF LEGAL", "GENERAL COUNSEL",
	} {
		if strings.Contains(upper, pattern) {
			return TitleCSuite
		}
	}

	// President counts, Vice President does not.
	if strings.Contains(upper, "PRESIDENT") && !strings.Contains(upper, "VICE") {
		return TitleCSuite
	}

	return TitleOther
}

// InsiderScorer scores insider buying activity on a 0-30 scale.
type InsiderScorer struct {
	cfg    strategyconfig.Scoring
	logger *logger.Logger
}

// NewInsiderScorer creates a new insider scorer.
func NewInsiderScorer(cfg strategyconfig.Scoring, log *logger.Logger) *InsiderScorer {
	return &InsiderScorer{cfg: cfg, logger: log}
}

// Score converts an insider activity summary into a bounded signal.
//
// Rubric (0-30): +5 base for any meaningful buy in the lookback window;
// +4 per additional unique buyer, capped at +8; +12 CEO/CFO buying or +6
// other C-suite (directors get the baseline only); value bonus +6 over
// $1M, +4 over $500k, +2 over $100k. Purchases below the meaningful floor
// are filtered out before anything else.
func (s *InsiderScorer) Score(activity *contracts.InsiderActivity) contracts.InsiderSignal {
	ticker := ""
	if activity != nil {
		ticker = activity.Ticker
	}

	noSignal := contracts.InsiderSignal{
		Ticker: ticker,
		Reason: "No insider buying in lookback period",
	}

	if activity == nil || len(activity.Trades) == 0 {
		return noSignal
	}

	// Drop purchases too small to be meaningful.
	meaningful := make([]contracts.InsiderTrade, 0, len(activity.Trades))
	filteredOut := 0
	for _, trade := range activity.Trades {
		if trade.TotalValue < s.cfg.MinInsiderPurchase {
			filteredOut++
			continue
		}
		meaningful = append(meaningful, trade)
	}

	if len(meaningful) == 0 {
		noSignal.FilteredOut = filteredOut
		return noSignal
	}

	buyers := make(map[string]struct{}, len(meaningful))
	var (
		totalValue   float64
		ceoCfoBuying bool
		csuiteBuying bool
	)
	largest := meaningful[0]
	for _, trade := range meaningful {
		buyers[trade.InsiderName] = struct{}{}
		totalValue += trade.TotalValue
		if trade.TotalValue > largest.TotalValue {
			largest = trade
		}

		switch ClassifyInsiderTitle(trade.InsiderTitle) {
		case TitleCEOCFO:
			ceoCfoBuying = true
		case TitleCSuite:
			csuiteBuying = true
		}
	}

	score := 0
	var breakdown contracts.Breakdown
	add := func(points int, reason string) {
		score += points
		breakdown = append(breakdown, contracts.BreakdownEntry{Points: points, Reason: reason})
	}

	add(5, "Insider buying detected")

	// Buyer clusters: +4 per extra buyer, at most two extras counted.
	extraBuyers := len(buyers) - 1
	if extraBuyers > 2 {
		extraBuyers = 2
	}
	if extraBuyers > 0 {
		add(extraBuyers*4, fmt.Sprintf("%d unique buyers (clusters are strong)", len(buyers)))
	}

	// Title dominance, the most predictive factor.
	if ceoCfoBuying {
		add(12, "CEO/CFO buying (strongest signal)")
	} else if csuiteBuying {
		add(6, "C-Suite buying (COO/President/CTO)")
	}

	// Value bonus scales with the aggregate buy size.
	switch {
	case totalValue > 1_000_000:
		add(6, fmt.Sprintf("Buy value $%.0f (>$1M)", totalValue))
	case totalValue > 500_000:
		add(4, fmt.Sprintf("Buy value $%.0f (>$500k)", totalValue))
	case totalValue > 100_000:
		add(2, fmt.Sprintf("Buy value $%.0f (>$100k)", totalValue))
	}

	if score > contracts.InsiderMaxScore {
		score = contracts.InsiderMaxScore
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":       ticker,
		"score":        score,
		"buyers":       len(buyers),
		"total_value":  totalValue,
		"filtered_out": filteredOut,
	}).Debug("Scored insider activity")

	return contracts.InsiderSignal{
		Ticker:            ticker,
		Score:             score,
		NumBuyers:         len(buyers),
		TotalValue:        totalValue,
		CEOCFOBuying:      ceoCfoBuying,
		CSuiteBuying:      csuiteBuying,
		LargestBuy:        largest.TotalValue,
		LargestBuyer:      largest.InsiderName,
		LargestBuyerTitle: largest.InsiderTitle,
		LargestBuyerType:  ClassifyInsiderTitle(largest.InsiderTitle),
		FilteredOut:       filteredOut,
		Breakdown:         breakdown,
	}
}
