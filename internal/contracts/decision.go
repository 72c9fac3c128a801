package contracts

import "time"

// DecisionSchemaVersion tags persisted DayDecision records so the audit
// trail stays readable across format changes.
const DecisionSchemaVersion = 1

// CandidateScore is the per-candidate snapshot kept in the decision trace.
type CandidateScore struct {
	Ticker       string `json:"ticker"`
	TotalScore   int    `json:"total_score"`
	InsiderScore int    `json:"insider_score"`
	OptionsScore int    `json:"options_score"`
	SocialScore  int    `json:"social_score"`
}

// Rejection records a ticker culled before scoring, with the gate reason.
type Rejection struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// DayDecision is the full stock-of-the-day decision trace for one date:
// the pick (or no-pick) with its reason, the top candidates considered and
// a sample of the rejected universe. This record is the system's
// explainability contract and must stay diffable for post-hoc review.
type DayDecision struct {
	SchemaVersion int       `json:"schema_version"`
	Date          time.Time `json:"date"`

	HasPick bool   `json:"has_pick"`
	Ticker  string `json:"ticker,omitempty"`
	Score   int    `json:"score,omitempty"`
	Reason  string `json:"reason"`

	CandidateCount  int              `json:"candidate_count"`
	FilteredCount   int              `json:"filtered_count"`
	TopCandidates   []CandidateScore `json:"top_candidates"`
	RejectedSamples []Rejection      `json:"rejected_samples"`
}
