package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	return NewRepository(db)
}

func TestInsertNewsDeduplicates(t *testing.T) {
	repo := testRepo(t)
	now := time.Now().UTC()

	n, err := repo.InsertNews([]NewsItem{
		{Ticker: "AAPL", Headline: "Apple beats estimates", NewsTime: now},
		{Ticker: "TSLA", Headline: "Tesla misses estimates", NewsTime: now},
	})
	assert.NoError(t, err)
	assert.Equal(t, n, 2)

	// Ensure a repeated (ticker, headline) pair is silently dropped while a
	// new ticker for the same headline is kept.
	n, err = repo.InsertNews([]NewsItem{
		{Ticker: "AAPL", Headline: "Apple beats estimates", NewsTime: now},
		{Ticker: "MSFT", Headline: "Apple beats estimates", NewsTime: now},
	})
	assert.NoError(t, err)
	assert.Equal(t, n, 1)

	items, err := repo.RecentNews(10)
	assert.NoError(t, err)
	assert.Equal(t, len(items), 3)
}

func TestUnprocessedNewsConsumption(t *testing.T) {
	repo := testRepo(t)
	now := time.Now().UTC()

	_, err := repo.InsertNews([]NewsItem{
		{Ticker: "AAPL", Headline: "first", NewsTime: now.Add(-time.Minute)},
		{Ticker: "TSLA", Headline: "second", NewsTime: now},
	})
	assert.NoError(t, err)

	// Ensure unprocessed news comes newest first.
	items, err := repo.UnprocessedNews(10)
	assert.NoError(t, err)
	assert.Equal(t, len(items), 2)
	assert.Equal(t, items[0].Ticker, "TSLA")

	// Ensure a trade row referencing the news id consumes it, skip rows
	// included.
	assert.NoError(t, repo.CreateTrade(&Trade{
		NewsID:     &items[0].ID,
		Ticker:     items[0].Ticker,
		SkipReason: "Sentiment not bullish",
	}))

	items, err = repo.UnprocessedNews(10)
	assert.NoError(t, err)
	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Ticker, "AAPL")
}

func TestCloseTradeIsConditional(t *testing.T) {
	repo := testRepo(t)
	entry := 100.0
	now := time.Now().UTC()
	trade := &Trade{Ticker: "AAPL", EntryPrice: &entry, EntryTime: &now}
	assert.NoError(t, repo.CreateTrade(trade))

	closed, err := repo.CloseTrade(trade.ID, 110, "tsl_10%")
	assert.NoError(t, err)
	assert.True(t, closed)

	// Ensure a second close is a no-op that leaves the first exit intact.
	closed, err = repo.CloseTrade(trade.ID, 50, "market_close")
	assert.NoError(t, err)
	assert.False(t, closed)

	got, err := repo.GetTrade(trade.ID)
	assert.NoError(t, err)
	assert.Equal(t, *got.ExitPrice, 110.0)
	assert.Equal(t, got.ExitReason, "tsl_10%")
}

func TestUpdatePeakFrozenAfterClose(t *testing.T) {
	repo := testRepo(t)
	entry := 100.0
	now := time.Now().UTC()
	trade := &Trade{Ticker: "AAPL", EntryPrice: &entry, EntryTime: &now, PeakPrice: &entry}
	assert.NoError(t, repo.CreateTrade(trade))

	assert.NoError(t, repo.UpdatePeak(trade.ID, 120))
	got, err := repo.GetTrade(trade.ID)
	assert.NoError(t, err)
	assert.Equal(t, *got.PeakPrice, 120.0)

	// Ensure the peak no longer moves once the trade is closed.
	_, err = repo.CloseTrade(trade.ID, 110, "manual_exit")
	assert.NoError(t, err)
	assert.NoError(t, repo.UpdatePeak(trade.ID, 200))
	got, err = repo.GetTrade(trade.ID)
	assert.NoError(t, err)
	assert.Equal(t, *got.PeakPrice, 120.0)
}

func TestTradeStateQueries(t *testing.T) {
	repo := testRepo(t)
	entry := 100.0
	now := time.Now().UTC()

	open := &Trade{Ticker: "OPEN", EntryPrice: &entry, EntryTime: &now}
	assert.NoError(t, repo.CreateTrade(open))
	closedTrade := &Trade{Ticker: "DONE", EntryPrice: &entry, EntryTime: &now}
	assert.NoError(t, repo.CreateTrade(closedTrade))
	_, err := repo.CloseTrade(closedTrade.ID, 110, "tsl_10%")
	assert.NoError(t, err)
	skip := &Trade{Ticker: "SKIP", SkipReason: "No price data"}
	assert.NoError(t, repo.CreateTrade(skip))

	trades, err := repo.OpenTrades()
	assert.NoError(t, err)
	assert.Equal(t, len(trades), 1)
	assert.Equal(t, trades[0].Ticker, "OPEN")

	trades, err = repo.ClosedTrades(10)
	assert.NoError(t, err)
	assert.Equal(t, len(trades), 1)
	assert.Equal(t, trades[0].Ticker, "DONE")

	trades, err = repo.SkippedTrades(10)
	assert.NoError(t, err)
	assert.Equal(t, len(trades), 1)
	assert.Equal(t, trades[0].Ticker, "SKIP")

	total, err := repo.TotalPnL()
	assert.NoError(t, err)
	assert.Equal(t, total, 10.0)
}

func TestSettings(t *testing.T) {
	repo := testRepo(t)

	// Ensure the seeded defaults load.
	s := repo.LoadSettings()
	assert.Equal(t, s.CapitalMode, "percent")
	assert.Equal(t, s.CapitalValue, 10.0)
	assert.Equal(t, s.AccountSize, 100000.0)
	assert.True(t, s.PaperTrading)

	// Ensure updates upsert rather than duplicate.
	assert.NoError(t, repo.SetSetting("capital_mode", "dollar"))
	assert.NoError(t, repo.SetSetting("capital_value", "2500"))
	s = repo.LoadSettings()
	assert.Equal(t, s.CapitalMode, "dollar")
	assert.Equal(t, s.CapitalValue, 2500.0)

	// Ensure malformed values fall back to the defaults.
	assert.NoError(t, repo.SetSetting("capital_mode", "bogus"))
	assert.NoError(t, repo.SetSetting("capital_value", "not-a-number"))
	s = repo.LoadSettings()
	assert.Equal(t, s.CapitalMode, "percent")
	assert.Equal(t, s.CapitalValue, 10.0)
}

func TestCapitalUsageAggregation(t *testing.T) {
	repo := testRepo(t)

	assert.NoError(t, repo.RecordCapitalUsage("AAPL", 5000))
	assert.NoError(t, repo.RecordCapitalUsage("AAPL", 3000))
	assert.NoError(t, repo.RecordCapitalUsage("TSLA", 4000))

	rows, err := repo.TodayCapitalUsage()
	assert.NoError(t, err)
	assert.Equal(t, len(rows), 2)
	assert.Equal(t, rows[0].Ticker, "AAPL")
	assert.Equal(t, rows[0].Used, 8000.0)
	assert.Equal(t, rows[1].Ticker, "TSLA")
}

func TestOperationalLogs(t *testing.T) {
	repo := testRepo(t)

	assert.NoError(t, repo.AppendLog("API", "benzinga", "REQUEST", "{}", ""))
	assert.NoError(t, repo.AppendLog("API", "benzinga", "RESPONSE", "{}", ""))
	assert.NoError(t, repo.AppendLog("ERROR", "alpaca", "REQUEST_ERROR", "timeout", "AAPL"))

	// Ensure component filtering holds and newest entries come first.
	entries, err := repo.RecentLogs("benzinga", 10)
	assert.NoError(t, err)
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Event, "RESPONSE")

	// Ensure poller health keys off the last RESPONSE event only.
	at, err := repo.LastResponseAt("benzinga")
	assert.NoError(t, err)
	assert.False(t, at.IsZero())

	_, err = repo.LastResponseAt("alpaca")
	assert.Error(t, err)
}
