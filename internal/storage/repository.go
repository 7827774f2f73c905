package storage

import (
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a transactional repository. Used for the
// read-modify-write sequences that would otherwise race between the two loops.
func (r *Repository) Transaction(fn func(*Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// News

// InsertNews inserts headlines, silently dropping rows whose (ticker, headline)
// pair already exists. Returns the number actually inserted.
func (r *Repository) InsertNews(items []NewsItem) (int, error) {
	inserted := 0
	for i := range items {
		res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&items[i])
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

// UnprocessedNews returns the newest headlines not yet referenced by any trade
// row. A null news_id counts as the sentinel 0, so it never masks real ids.
func (r *Repository) UnprocessedNews(limit int) ([]NewsItem, error) {
	var items []NewsItem
	err := r.db.
		Where("id NOT IN (SELECT COALESCE(news_id, 0) FROM trades)").
		Order("news_time DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *Repository) RecentNews(limit int) ([]NewsItem, error) {
	var items []NewsItem
	err := r.db.Order("news_time DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (r *Repository) TodayNews(limit int) ([]NewsItem, error) {
	var items []NewsItem
	err := r.db.
		Where("DATE(news_time) = DATE('now')").
		Order("news_time DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// Trades

func (r *Repository) CreateTrade(trade *Trade) error {
	return r.db.Create(trade).Error
}

func (r *Repository) GetTrade(id uint) (*Trade, error) {
	var trade Trade
	if err := r.db.First(&trade, id).Error; err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *Repository) OpenTrades() ([]Trade, error) {
	var trades []Trade
	err := r.db.
		Where("entry_price IS NOT NULL AND exit_price IS NULL").
		Order("entry_time DESC").
		Find(&trades).Error
	return trades, err
}

func (r *Repository) ClosedTrades(limit int) ([]Trade, error) {
	var trades []Trade
	err := r.db.
		Where("exit_price IS NOT NULL").
		Order("exit_time DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

func (r *Repository) SkippedTrades(limit int) ([]Trade, error) {
	var trades []Trade
	err := r.db.
		Where("skip_reason != '' AND entry_price IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	return trades, err
}

// UpdatePeak persists a new peak price for an open trade. Guarded on the trade
// still being open so a concurrent close freezes the peak.
func (r *Repository) UpdatePeak(tradeID uint, peak float64) error {
	return r.db.Model(&Trade{}).
		Where("id = ? AND exit_price IS NULL", tradeID).
		Update("peak_price", peak).Error
}

// CloseTrade sets the exit fields of an open trade. The update is conditional
// on exit_price still being null, so a second close of the same trade is a
// no-op; the boolean reports whether this call performed the close.
func (r *Repository) CloseTrade(tradeID uint, exitPrice float64, reason string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.Model(&Trade{}).
		Where("id = ? AND exit_price IS NULL", tradeID).
		Updates(map[string]any{
			"exit_price":  exitPrice,
			"exit_time":   now,
			"exit_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) SetTrailingStop(tradeID uint, pct float64) error {
	return r.db.Model(&Trade{}).
		Where("id = ?", tradeID).
		Update("trailing_stop_loss", pct).Error
}

func (r *Repository) SetMarketCloseExit(tradeID uint, enabled bool) error {
	return r.db.Model(&Trade{}).
		Where("id = ?", tradeID).
		Update("market_close_exit", enabled).Error
}

func (r *Repository) TotalPnL() (float64, error) {
	var total float64
	err := r.db.Model(&Trade{}).
		Where("entry_price IS NOT NULL AND exit_price IS NOT NULL").
		Select("COALESCE(SUM(exit_price - entry_price), 0)").
		Scan(&total).Error
	return total, err
}

func (r *Repository) TodayPnL() (float64, error) {
	var total float64
	err := r.db.Model(&Trade{}).
		Where("entry_price IS NOT NULL AND exit_price IS NOT NULL AND DATE(COALESCE(exit_time, entry_time)) = DATE('now')").
		Select("COALESCE(SUM(exit_price - entry_price), 0)").
		Scan(&total).Error
	return total, err
}

// Settings

// Settings is a typed snapshot of the runtime-mutable trading settings,
// loaded once per pipeline cycle to avoid inconsistent reads mid-cycle.
type Settings struct {
	CapitalMode  string
	CapitalValue float64
	AccountSize  float64
	PaperTrading bool
}

func (r *Repository) GetSetting(key, fallback string) string {
	var s Setting
	if err := r.db.First(&s, "key = ?", key).Error; err != nil {
		return fallback
	}
	return s.Value
}

func (r *Repository) SetSetting(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

// LoadSettings reads the settings snapshot, failing closed to the documented
// defaults on malformed values.
func (r *Repository) LoadSettings() Settings {
	s := Settings{
		CapitalMode:  "percent",
		CapitalValue: 10,
		AccountSize:  100000,
		PaperTrading: true,
	}

	if mode := r.GetSetting("capital_mode", "percent"); mode == "percent" || mode == "dollar" {
		s.CapitalMode = mode
	}
	if v, err := strconv.ParseFloat(r.GetSetting("capital_value", "10"), 64); err == nil {
		s.CapitalValue = v
	}
	if v, err := strconv.ParseFloat(r.GetSetting("account_size", "100000"), 64); err == nil {
		s.AccountSize = v
	}
	if v, err := strconv.ParseBool(r.GetSetting("paper_trading", "true")); err == nil {
		s.PaperTrading = v
	}
	return s
}

// Capital usage

func (r *Repository) RecordCapitalUsage(ticker string, amount float64) error {
	return r.db.Create(&CapitalUsage{
		Date:   time.Now().UTC().Format("2006-01-02"),
		Ticker: ticker,
		Amount: amount,
	}).Error
}

// CapitalUsageRow is a per-ticker aggregate for the dashboard.
type CapitalUsageRow struct {
	Ticker string
	Used   float64
}

func (r *Repository) TodayCapitalUsage() ([]CapitalUsageRow, error) {
	var rows []CapitalUsageRow
	err := r.db.Model(&CapitalUsage{}).
		Select("ticker, SUM(amount) AS used").
		Where("date = ?", time.Now().UTC().Format("2006-01-02")).
		Group("ticker").
		Order("used DESC").
		Scan(&rows).Error
	return rows, err
}

// Audit events

func (r *Repository) RecordTradeEvent(tradeID uint, event, oldValue, newValue string) error {
	return r.db.Create(&TradeEvent{
		TradeID:   tradeID,
		Event:     event,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Now().UTC(),
	}).Error
}

func (r *Repository) TradeEvents(tradeID uint) ([]TradeEvent, error) {
	var events []TradeEvent
	err := r.db.Where("trade_id = ?", tradeID).Order("id DESC").Find(&events).Error
	return events, err
}

// Operational logs

func (r *Repository) AppendLog(level, component, event, message, ticker string) error {
	return r.db.Create(&LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Component: component,
		Event:     event,
		Message:   message,
		Ticker:    ticker,
	}).Error
}

func (r *Repository) RecentLogs(component string, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	q := r.db.Order("id DESC").Limit(limit)
	if component != "" {
		q = q.Where("component = ?", component)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// LastResponseAt returns the timestamp of the most recent successful provider
// response for the given component, used for poller health on the log viewer.
func (r *Repository) LastResponseAt(component string) (time.Time, error) {
	var entry LogEntry
	err := r.db.
		Where("component = ? AND event = ?", component, "RESPONSE").
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return time.Time{}, err
	}
	return entry.Timestamp, nil
}
