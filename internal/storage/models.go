package storage

import "time"

// NewsItem is a persisted headline. Rows are deduplicated on
// (ticker, headline) and never mutated after ingestion.
type NewsItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Ticker          string   `gorm:"uniqueIndex:idx_news_ticker_headline;not null" json:"ticker"`
	Headline        string   `gorm:"uniqueIndex:idx_news_ticker_headline;not null" json:"headline"`
	Sentiment       *string  `json:"sentiment"`
	SentimentScore  *float64 `json:"sentiment_score"`
	SentimentSource string   `json:"sentiment_source"`
	NewsTime        time.Time `gorm:"index" json:"news_time"`
}

func (NewsItem) TableName() string { return "news" }

// Trade is the central position row. Skips and real entries share this shape:
// a skip has SkipReason set and no EntryPrice, an open position has EntryPrice
// and no ExitPrice, a closed position has both.
type Trade struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	NewsID          *uint   `gorm:"index" json:"news_id"`
	Ticker          string  `gorm:"index;not null" json:"ticker"`
	Headline        string  `json:"headline"`
	Sentiment       string  `json:"sentiment"`
	SentimentScore  float64 `json:"sentiment_score"`
	SentimentSource string  `json:"sentiment_source"`

	EntryPrice  *float64   `json:"entry_price"`
	EntryAmount *float64   `json:"entry_amount"`
	EntryTime   *time.Time `json:"entry_time"`

	ExitPrice  *float64   `json:"exit_price"`
	ExitTime   *time.Time `json:"exit_time"`
	ExitReason string     `json:"exit_reason"`
	SkipReason string     `json:"skip_reason"`

	TrailingStopPct float64  `gorm:"column:trailing_stop_loss;default:10" json:"trailing_stop_loss"`
	MarketCloseExit bool     `gorm:"column:market_close_exit;default:true" json:"market_close_exit"`
	PeakPrice       *float64 `json:"peak_price"`
}

func (Trade) TableName() string { return "trades" }

func (t *Trade) IsSkipped() bool { return t.SkipReason != "" && t.EntryPrice == nil }
func (t *Trade) IsOpen() bool    { return t.EntryPrice != nil && t.ExitPrice == nil }
func (t *Trade) IsClosed() bool  { return t.EntryPrice != nil && t.ExitPrice != nil }

// Pointer-safe accessors for templates.

func (t Trade) EntryPriceVal() float64 {
	if t.EntryPrice == nil {
		return 0
	}
	return *t.EntryPrice
}

func (t Trade) ExitPriceVal() float64 {
	if t.ExitPrice == nil {
		return 0
	}
	return *t.ExitPrice
}

// Setting is an operator-mutable key/value pair read once per pipeline cycle.
type Setting struct {
	Key   string `gorm:"primarykey" json:"key"`
	Value string `json:"value"`
}

func (Setting) TableName() string { return "settings" }

// CapitalUsage is an append-only record of notional committed per entry.
type CapitalUsage struct {
	ID     uint    `gorm:"primarykey" json:"id"`
	Date   string  `gorm:"index" json:"date"` // YYYY-MM-DD
	Ticker string  `json:"ticker"`
	Amount float64 `json:"amount"`
}

func (CapitalUsage) TableName() string { return "capital_usage" }

// TradeEvent is an append-only audit row for manual operator interventions.
type TradeEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	TradeID   uint      `gorm:"index" json:"trade_id"`
	Event     string    `json:"event"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
}

func (TradeEvent) TableName() string { return "trade_events" }

// LogEntry is a structured operational log row, queried by the log viewer
// for provider-call health.
type LogEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `gorm:"index" json:"component"`
	Event     string    `json:"event"`
	Message   string    `json:"message"`
	Ticker    string    `json:"ticker"`
}

func (LogEntry) TableName() string { return "logs" }
