package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/market"
	"github.com/kbxbnb/BnBot/internal/sentiment"
	"github.com/kbxbnb/BnBot/internal/storage"
)

// MarketData supplies bar series and the account balance. A nil series or
// nil account with a nil error means the data is unavailable right now.
type MarketData interface {
	Bars(ctx context.Context, ticker, timeframe string, limit int) ([]market.Bar, error)
	Balance(ctx context.Context) (*market.Account, error)
}

// HeadlineScorer resolves sentiment for a headline, preferring the
// provider-supplied label.
type HeadlineScorer interface {
	Score(ctx context.Context, headline, providerLabel string) sentiment.Result
}

// Alerter delivers trade notifications, best-effort.
type Alerter interface {
	NotifyEntry(ticker string, price, notional float64, sentiment string, score float64, source, headline string)
	NotifySkip(ticker, reason, sentiment string, score float64, source, headline string)
	NotifyExit(ticker string, exitPrice float64, reason string)
}

// Pipeline turns unprocessed headlines into trade-or-skip rows. One
// invocation per scheduler cycle; all coordination with the exit engine goes
// through the store.
type Pipeline struct {
	repo     *storage.Repository
	market   MarketData
	scorer   HeadlineScorer
	notifier Alerter
	rules    EntryRules

	timeframe   string
	barLimit    int
	batchSize   int
	trailingPct float64

	logger *logger.Logger
}

func NewPipeline(repo *storage.Repository, md MarketData, scorer HeadlineScorer, notifier Alerter, cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		market:   md,
		scorer:   scorer,
		notifier: notifier,
		rules: EntryRules{
			RvolThreshold:      cfg.Trading.RvolThreshold,
			RvolWindow:         cfg.Trading.RvolWindow,
			ResistanceLookback: cfg.Trading.ResistanceLookback,
		},
		timeframe:   cfg.Trading.BarTimeframe,
		barLimit:    cfg.Trading.BarLimit,
		batchSize:   cfg.Trading.NewsBatchSize,
		trailingPct: cfg.Trading.DefaultTrailingPct,
		logger:      log,
	}
}

// RunOnce processes one batch of unprocessed news. Settings are snapshotted
// once at the top so a mid-cycle operator edit cannot produce inconsistent
// sizing within the batch.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	settings := p.repo.LoadSettings()
	budget := PerTradeBudget(settings)

	// Broker balance, falling back to the configured account size when the
	// adapter is unavailable.
	available := settings.AccountSize
	if acct, err := p.market.Balance(ctx); err == nil && acct != nil {
		available = acct.BuyingPower
	}

	items, err := p.repo.UnprocessedNews(p.batchSize)
	if err != nil {
		return fmt.Errorf("select unprocessed news: %w", err)
	}

	for i := range items {
		item := &items[i]

		providerLabel := ""
		if item.Sentiment != nil {
			providerLabel = *item.Sentiment
		}
		res := p.scorer.Score(ctx, item.Headline, providerLabel)

		if !res.Bullish() {
			p.skip(item, res, ReasonNotBullish)
			continue
		}

		bars, err := p.market.Bars(ctx, item.Ticker, p.timeframe, p.barLimit)
		if err != nil {
			p.logger.Error("fetch bars", "ticker", item.Ticker, "error", err)
		}
		if len(bars) == 0 {
			p.skip(item, res, ReasonNoPriceData)
			continue
		}

		if admit, reason := p.rules.Evaluate(res, bars); !admit {
			p.skip(item, res, reason)
			continue
		}

		if budget > available {
			p.skip(item, res, fmt.Sprintf("Insufficient capital: need $%s, have $%s",
				formatUSD(budget), formatUSD(available)))
			continue
		}

		entryPrice := bars[len(bars)-1].Close
		if err := p.open(item, res, entryPrice, budget); err != nil {
			p.logger.Error("open position", "ticker", item.Ticker, "error", err)
			continue
		}

		// The running counter drops by the budgeted amount, not the realized
		// notional, so it can drift from true remaining buying power.
		available -= budget
	}

	return nil
}

// open sizes and persists a new position. At least one share is always
// bought, so the realized notional can exceed the budget when the price alone
// does.
func (p *Pipeline) open(item *storage.NewsItem, res sentiment.Result, entryPrice, budget float64) error {
	shares := math.Max(1, math.Floor(budget/math.Max(entryPrice, 0.01)))
	notional := shares * entryPrice
	now := time.Now().UTC()

	trade := &storage.Trade{
		NewsID:          &item.ID,
		Ticker:          item.Ticker,
		Headline:        item.Headline,
		Sentiment:       res.Label,
		SentimentScore:  res.Score,
		SentimentSource: res.Source,
		EntryPrice:      &entryPrice,
		EntryAmount:     &notional,
		EntryTime:       &now,
		TrailingStopPct: p.trailingPct,
		MarketCloseExit: true,
		PeakPrice:       &entryPrice,
	}

	// Position row and capital-usage record land together or not at all.
	err := p.repo.Transaction(func(tx *storage.Repository) error {
		if err := tx.CreateTrade(trade); err != nil {
			return err
		}
		return tx.RecordCapitalUsage(item.Ticker, notional)
	})
	if err != nil {
		return err
	}

	p.logger.Info("position opened",
		"ticker", item.Ticker, "price", entryPrice, "shares", shares, "notional", notional)
	p.notifier.NotifyEntry(item.Ticker, entryPrice, notional, res.Label, res.Score, res.Source, item.Headline)
	return nil
}

// skip records a rejected headline. The skip row links the news id too, so
// every processed record maps to exactly one trades row and is never
// re-selected.
func (p *Pipeline) skip(item *storage.NewsItem, res sentiment.Result, reason string) {
	now := time.Now().UTC()
	trade := &storage.Trade{
		NewsID:          &item.ID,
		Ticker:          item.Ticker,
		Headline:        item.Headline,
		Sentiment:       res.Label,
		SentimentScore:  res.Score,
		SentimentSource: res.Source,
		EntryTime:       &now,
		SkipReason:      reason,
		TrailingStopPct: p.trailingPct,
		MarketCloseExit: true,
	}
	if err := p.repo.CreateTrade(trade); err != nil {
		p.logger.Error("record skip", "ticker", item.Ticker, "error", err)
		return
	}

	p.logger.Info("headline skipped", "ticker", item.Ticker, "reason", reason)
	p.notifier.NotifySkip(item.Ticker, reason, res.Label, res.Score, res.Source, item.Headline)
}

// formatUSD renders a dollar amount with comma grouping and two decimals.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
