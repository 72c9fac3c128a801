package contracts

import (
	"fmt"
	"time"
)

// Maximum component scores. The combined total is bounded by their sum.
const (
	InsiderMaxScore = 30
	OptionsMaxScore = 25
	SocialMaxScore  = 20
	TotalMaxScore   = InsiderMaxScore + OptionsMaxScore + SocialMaxScore
)

// BreakdownEntry is one scored line of a component breakdown ("+12: CEO/CFO
// buying"). The breakdown is part of the scorer contract, not incidental
// logging: dashboards and the email shell render it verbatim.
type BreakdownEntry struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

func (e BreakdownEntry) String() string {
	return fmt.Sprintf("+%d: %s", e.Points, e.Reason)
}

// Breakdown is the ordered explanation of how a component score was built.
type Breakdown []BreakdownEntry

// Lines renders the breakdown as display strings, in scoring order.
func (b Breakdown) Lines() []string {
	lines := make([]string, len(b))
	for i, e := range b {
		lines[i] = e.String()
	}
	return lines
}

// InsiderSignal is the insider scorer output for one ticker. Immutable.
type InsiderSignal struct {
	Ticker            string    `json:"ticker"`
	Score             int       `json:"score"` // 0-30
	NumBuyers         int       `json:"num_buyers"`
	TotalValue        float64   `json:"total_value"`
	CEOCFOBuying      bool      `json:"ceo_cfo_buying"`
	CSuiteBuying      bool      `json:"csuite_buying"` // COO/President/CTO etc, non-CEO/CFO
	LargestBuy        float64   `json:"largest_buy"`
	LargestBuyer      string    `json:"largest_buyer"`
	LargestBuyerTitle string    `json:"largest_buyer_title"`
	LargestBuyerType  string    `json:"largest_buyer_type"` // CEO/CFO, C-Suite, Director, Other
	FilteredOut       int       `json:"filtered_out"`       // trades below the meaningful-purchase floor
	Breakdown         Breakdown `json:"breakdown"`
	Reason            string    `json:"reason,omitempty"` // set when score is 0
}

// OptionsSignal is the options scorer output for one ticker. Immutable.
type OptionsSignal struct {
	Ticker          string    `json:"ticker"`
	Score           int       `json:"score"` // 0-25
	CallVolume      int64     `json:"call_volume"`
	PutVolume       int64     `json:"put_volume"`
	CallVolumeRatio float64   `json:"call_volume_ratio"`
	PutCallRatio    float64   `json:"put_call_ratio"`
	UnusualCalls    bool      `json:"unusual_calls"`
	NearTermFocus   bool      `json:"near_term_focus"`
	Breakdown       Breakdown `json:"breakdown"`
	Reason          string    `json:"reason,omitempty"`
}

// SocialSignal is the social scorer output for one ticker. Immutable.
type SocialSignal struct {
	Ticker             string    `json:"ticker"`
	Score              int       `json:"score"` // 0-20
	RedditMentions     int       `json:"reddit_mentions"`
	StocktwitsMentions int       `json:"stocktwits_mentions"`
	CombinedVelocity   float64   `json:"combined_velocity"`
	AvgSentiment       float64   `json:"avg_sentiment"`
	BullishRatio       float64   `json:"bullish_ratio"`
	CrossPlatform      bool      `json:"cross_platform"`
	Breakdown          Breakdown `json:"breakdown"`
	Reason             string    `json:"reason,omitempty"`
}

// Action is the trade decision for a combined signal.
type Action string

const (
	ActionTrade Action = "TRADE"
	ActionWatch Action = "WATCH"
	ActionNone  Action = "NONE"
)

// Tier is the coarse quality bucket assigned by the combiner decision tree.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// PositionSize is the sizing label for an actionable signal.
type PositionSize string

const (
	SizeFull    PositionSize = "FULL"
	SizeHalf    PositionSize = "HALF"
	SizeQuarter PositionSize = "QUARTER"
	SizeNone    PositionSize = "NONE"
)

// CombinedSignal merges the three component signals into one decision per
// (ticker, date). Recomputation overwrites the earlier row (upsert).
//
// Invariant: Action == TRADE implies PositionSize != NONE, and the trade
// parameters are set whenever a current price was supplied.
type CombinedSignal struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`

	Insider InsiderSignal `json:"insider"`
	Options OptionsSignal `json:"options"`
	Social  SocialSignal  `json:"social"`

	TotalScore   int          `json:"total_score"` // 0-75
	Action       Action       `json:"action"`
	Tier         Tier         `json:"tier"`
	PositionSize PositionSize `json:"position_size"`

	EntryPrice  *float64 `json:"entry_price,omitempty"`
	StopPrice   *float64 `json:"stop_price,omitempty"`
	TargetPrice *float64 `json:"target_price,omitempty"`

	Notes string `json:"notes"`
}

// ActiveComponents counts components that contributed a nonzero score.
func (s *CombinedSignal) ActiveComponents() int {
	n := 0
	if s.Insider.Score > 0 {
		n++
	}
	if s.Options.Score > 0 {
		n++
	}
	if s.Social.Score > 0 {
		n++
	}
	return n
}
