package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
)

const (
	dataBaseURL    = "https://data.alpaca.markets/v2/stocks/bars"
	accountBaseURL = "https://paper-api.alpaca.markets/v2/account"
)

// Client fetches intraday bars and the paper-account balance from Alpaca.
// Missing credentials or any transport failure degrade to "data unavailable":
// callers receive nil and treat the item as a routine skip.
type Client struct {
	apiKey     string
	secretKey  string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		apiKey:     cfg.Alpaca.APIKey,
		secretKey:  cfg.Alpaca.SecretKey,
		httpClient: &http.Client{Timeout: cfg.AlpacaTimeout()},
		logger:     log,
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpaca returned status %d", resp.StatusCode)
	}
	return body, nil
}

// Bars returns up to limit intraday bars for the ticker, oldest first.
// A nil series with a nil error means no data is available.
func (c *Client) Bars(ctx context.Context, ticker, timeframe string, limit int) ([]Bar, error) {
	if c.apiKey == "" || c.secretKey == "" {
		return nil, nil
	}

	symbol := strings.ToUpper(ticker)
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("timeframe", timeframe)
	params.Set("limit", fmt.Sprint(limit))

	body, err := c.get(ctx, dataBaseURL+"?"+params.Encode())
	if err != nil {
		c.logger.Debug("fetch bars", "ticker", symbol, "error", err)
		return nil, nil
	}

	raw := gjson.GetBytes(body, "bars."+symbol)
	if !raw.Exists() || !raw.IsArray() {
		return nil, nil
	}

	rows := raw.Array()
	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.Get("t").String())
		if err != nil {
			continue
		}
		bars = append(bars, Bar{
			Time:   ts,
			Open:   row.Get("o").Float(),
			High:   row.Get("h").Float(),
			Low:    row.Get("l").Float(),
			Close:  row.Get("c").Float(),
			Volume: row.Get("v").Float(),
		})
	}
	if len(bars) == 0 {
		return nil, nil
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Balance returns the paper-account balance, or nil when unavailable.
func (c *Client) Balance(ctx context.Context) (*Account, error) {
	if c.apiKey == "" || c.secretKey == "" {
		return nil, nil
	}

	body, err := c.get(ctx, accountBaseURL)
	if err != nil {
		c.logger.Debug("fetch account", "error", err)
		return nil, nil
	}

	// Alpaca serializes money fields as strings.
	return &Account{
		Cash:        gjson.GetBytes(body, "cash").Float(),
		BuyingPower: gjson.GetBytes(body, "buying_power").Float(),
		Equity:      gjson.GetBytes(body, "equity").Float(),
	}, nil
}
