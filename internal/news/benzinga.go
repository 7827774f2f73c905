package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
)

const newsBaseURL = "https://api.benzinga.com/api/v2/news"

// Article is a normalized provider headline before persistence. One article
// can reference several tickers; ingestion fans it out to one row per ticker.
type Article struct {
	Headline  string
	CreatedAt time.Time
	Tickers   []string
	Sentiment string // provider tag, may be empty
}

// FetchResult carries the parsed articles plus the call metadata recorded in
// the operational log.
type FetchResult struct {
	Articles  []Article
	Status    int
	ElapsedMS int64
	RawCount  int
}

type Client struct {
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		apiKey:     cfg.Benzinga.APIKey,
		pageSize:   cfg.Benzinga.PageSize,
		httpClient: &http.Client{Timeout: cfg.BenzingaTimeout()},
		logger:     log,
	}
}

// FetchLatest pulls the newest page of headlines.
func (c *Client) FetchLatest(ctx context.Context) (*FetchResult, error) {
	params := url.Values{}
	params.Set("token", c.apiKey)
	params.Set("pagesize", fmt.Sprint(c.pageSize))
	params.Set("display_tickers", "true")
	return c.fetch(ctx, params)
}

// FetchRange pulls headlines within [start, end], paging until exhausted.
// Used by the backtest runner.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time, tickers []string) ([]Article, error) {
	const maxPages = 50

	params := url.Values{}
	params.Set("token", c.apiKey)
	params.Set("pagesize", "100")
	params.Set("display_tickers", "true")
	params.Set("date", fmt.Sprintf("%s,%s", start.Format("2006-01-02"), end.Format("2006-01-02")))
	if len(tickers) > 0 {
		upper := make([]string, len(tickers))
		for i, t := range tickers {
			upper[i] = strings.ToUpper(t)
		}
		params.Set("tickers", strings.Join(upper, ","))
	}

	var out []Article
	for page := 0; page <= maxPages; page++ {
		p := url.Values{}
		for k, v := range params {
			p[k] = v
		}
		if page > 0 {
			p.Set("page", fmt.Sprint(page))
		}

		res, err := c.fetch(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, res.Articles...)
		if res.RawCount < 100 {
			break
		}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()
	elapsed := time.Since(start).Milliseconds()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read news response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &FetchResult{Status: resp.StatusCode, ElapsedMS: elapsed},
			fmt.Errorf("benzinga returned status %d: %.800s", resp.StatusCode, string(body))
	}

	articles, rawCount, err := parseArticles(body)
	if err != nil {
		return &FetchResult{Status: resp.StatusCode, ElapsedMS: elapsed},
			fmt.Errorf("parse news response: %w", err)
	}

	return &FetchResult{
		Articles:  articles,
		Status:    resp.StatusCode,
		ElapsedMS: elapsed,
		RawCount:  rawCount,
	}, nil
}

// parseArticles handles both response shapes the provider uses: a bare array
// and an object wrapping an "articles" array. Articles missing a headline,
// timestamp or ticker list are dropped here, before the pipeline ever sees
// them.
func parseArticles(body []byte) ([]Article, int, error) {
	root := gjson.ParseBytes(body)

	var rows []gjson.Result
	switch {
	case root.IsArray():
		rows = root.Array()
	case root.Get("articles").IsArray():
		rows = root.Get("articles").Array()
	default:
		return nil, 0, fmt.Errorf("unexpected response shape: %.200s", body)
	}

	articles := make([]Article, 0, len(rows))
	for _, row := range rows {
		headline := row.Get("title").String()
		if headline == "" {
			headline = row.Get("headline").String()
		}

		createdRaw := row.Get("created").String()
		if createdRaw == "" {
			createdRaw = row.Get("published").String()
		}
		if createdRaw == "" {
			createdRaw = row.Get("time").String()
		}

		tickers := parseTickers(row)

		if headline == "" || createdRaw == "" || len(tickers) == 0 {
			continue
		}

		created, err := parseTime(createdRaw)
		if err != nil {
			continue
		}

		articles = append(articles, Article{
			Headline:  headline,
			CreatedAt: created,
			Tickers:   tickers,
			Sentiment: row.Get("sentiment").String(),
		})
	}

	return articles, len(rows), nil
}

func parseTickers(row gjson.Result) []string {
	raw := row.Get("stocks")
	if !raw.IsArray() {
		raw = row.Get("tickers")
	}
	if !raw.IsArray() {
		return nil
	}

	var tickers []string
	for _, el := range raw.Array() {
		var symbol string
		if el.IsObject() {
			symbol = el.Get("name").String()
		} else {
			symbol = el.String()
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			tickers = append(tickers, symbol)
		}
	}
	return tickers
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
