package contracts

import "time"

// InsiderTrade is a single open-market purchase reported on a Form 4.
// Rows come from the insider_trades table maintained by the collector.
type InsiderTrade struct {
	InsiderName   string    `json:"insider_name"`
	InsiderTitle  string    `json:"insider_title"`
	Shares        int64     `json:"shares"`
	PricePerShare float64   `json:"price_per_share"`
	TotalValue    float64   `json:"total_value"`
	TradeDate     time.Time `json:"trade_date"`
}

// InsiderActivity aggregates a ticker's insider purchases over the lookback
// window. Read-only input to the insider scorer; the core never mutates it.
type InsiderActivity struct {
	Ticker string         `json:"ticker"`
	Trades []InsiderTrade `json:"trades"`
}

// OptionsActivity is one day's options flow summary for a ticker.
type OptionsActivity struct {
	Ticker           string    `json:"ticker"`
	Date             time.Time `json:"date"`
	CallVolume       int64     `json:"call_volume"`
	PutVolume        int64     `json:"put_volume"`
	CallOpenInterest int64     `json:"call_oi"`
	PutOpenInterest  int64     `json:"put_oi"`
	AvgCallVolume20D float64   `json:"avg_call_volume_20d"`
	AvgPutVolume20D  float64   `json:"avg_put_volume_20d"`
	CallVolumeRatio  float64   `json:"call_volume_ratio"` // today vs 20d average
	PutCallRatio     float64   `json:"put_call_ratio"`
	UnusualCalls     bool      `json:"unusual_calls"`
	UnusualPuts      bool      `json:"unusual_puts"`
}

// SocialActivity is one day's social media metrics for a ticker.
type SocialActivity struct {
	Ticker              string    `json:"ticker"`
	Date                time.Time `json:"date"`
	RedditMentions      int       `json:"reddit_mentions"`
	RedditSentiment     float64   `json:"reddit_sentiment"` // -1 to 1
	RedditVelocity      float64   `json:"reddit_velocity"`  // % change from prior day
	StocktwitsMentions  int       `json:"stocktwits_mentions"`
	StocktwitsSentiment float64   `json:"stocktwits_sentiment"`
	StocktwitsVelocity  float64   `json:"stocktwits_velocity"`
	CombinedVelocity    float64   `json:"combined_velocity"`
	BullishRatio        float64   `json:"bullish_ratio"`
}

// AvgSentiment blends platform sentiment, weighting only platforms that
// actually reported mentions.
func (a *SocialActivity) AvgSentiment() float64 {
	switch {
	case a.RedditMentions > 0 && a.StocktwitsMentions > 0:
		return (a.RedditSentiment + a.StocktwitsSentiment) / 2
	case a.RedditMentions > 0:
		return a.RedditSentiment
	case a.StocktwitsMentions > 0:
		return a.StocktwitsSentiment
	default:
		return 0
	}
}

// TickerStats holds the quality-gate facts for a ticker, supplied by the
// market-data collaborator.
type TickerStats struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	AvgVolume int64   `json:"avg_volume"`
}
