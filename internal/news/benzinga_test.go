package news

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestParseArticles(t *testing.T) {
	// Provider object shape with ticker objects and a sentiment tag.
	body := []byte(`{"articles": [
		{"title": "Apple beats estimates", "created": "Mon, 02 Mar 2026 14:30:00 -0500",
		 "stocks": [{"name": "aapl"}, {"name": "MSFT"}], "sentiment": "Bullish"},
		{"title": "No tickers here", "created": "Mon, 02 Mar 2026 14:31:00 -0500", "stocks": []},
		{"created": "Mon, 02 Mar 2026 14:32:00 -0500", "stocks": [{"name": "TSLA"}]}
	]}`)

	articles, rawCount, err := parseArticles(body)
	assert.NoError(t, err)

	// Ensure the raw count covers every row while malformed rows are dropped.
	assert.Equal(t, rawCount, 3)
	assert.Equal(t, len(articles), 1)

	a := articles[0]
	assert.Equal(t, a.Headline, "Apple beats estimates")
	assert.Equal(t, a.Sentiment, "Bullish")
	assert.Equal(t, cmp.Diff(a.Tickers, []string{"AAPL", "MSFT"}), "")

	// Bare-array shape with string tickers and an alternate headline key.
	body = []byte(`[{"headline": "Tesla recalls vehicles", "published": "2026-03-02T09:30:00Z", "tickers": ["TSLA"]}]`)
	articles, rawCount, err = parseArticles(body)
	assert.NoError(t, err)
	assert.Equal(t, rawCount, 1)
	assert.Equal(t, len(articles), 1)
	assert.Equal(t, articles[0].Headline, "Tesla recalls vehicles")
	assert.Equal(t, cmp.Diff(articles[0].Tickers, []string{"TSLA"}), "")

	// Ensure an unexpected shape is an error, not an empty result.
	_, _, err = parseArticles([]byte(`{"error": "rate limited"}`))
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	for _, raw := range []string{
		"2026-03-02T09:30:00Z",
		"Mon, 02 Mar 2026 09:30:00 -0500",
		"2026-03-02T09:30:00",
		"2026-03-02 09:30:00",
	} {
		ts, err := parseTime(raw)
		assert.NoError(t, err)
		assert.False(t, ts.IsZero())
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}

func TestNormalizeFansOutPerTicker(t *testing.T) {
	articles, _, err := parseArticles([]byte(`[
		{"title": "Chipmakers rally", "published": "2026-03-02T09:30:00Z",
		 "tickers": ["NVDA", "AMD"], "sentiment": "bullish"},
		{"title": "Quiet open", "published": "2026-03-02T09:31:00Z", "tickers": ["SPY"]}
	]`))
	assert.NoError(t, err)

	items := Normalize(articles)
	assert.Equal(t, len(items), 3)

	// Ensure each row carries its own ticker and the shared provider tag.
	assert.Equal(t, items[0].Ticker, "NVDA")
	assert.Equal(t, items[1].Ticker, "AMD")
	assert.NotNil(t, items[0].Sentiment)
	assert.Equal(t, *items[0].Sentiment, "bullish")

	// Ensure an absent provider tag stays null rather than empty.
	assert.Equal(t, items[2].Ticker, "SPY")
	assert.Nil(t, items[2].Sentiment)
}
