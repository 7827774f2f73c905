// Package backtest replays the entry rules over a historical news range.
// Exits are simulated with a flat 10% trailing stop walked over the bar
// window and a timed fallback, so results are indicative, not a fill-accurate
// replay.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kbxbnb/BnBot/internal/engine"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/news"
	"github.com/kbxbnb/BnBot/internal/sentiment"
)

const (
	simBarLimit  = 240
	simMaxSteps  = 20
	simTrailing  = 0.10
	resultClosed = "closed"
	resultSkip   = "skipped"
)

// SimTrade is one simulated outcome, either a skip or a closed round trip.
type SimTrade struct {
	Ticker          string   `json:"ticker"`
	Headline        string   `json:"headline"`
	Sentiment       string   `json:"sentiment"`
	SentimentScore  float64  `json:"sentiment_score"`
	SentimentSource string   `json:"sentiment_source"`
	EntryPrice      *float64 `json:"entry_price"`
	ExitPrice       *float64 `json:"exit_price"`
	ROI             *float64 `json:"roi"`
	Result          string   `json:"result"`
	Reason          string   `json:"reason"`
}

// Summary aggregates the closed simulated trades.
type Summary struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	AvgROI      float64 `json:"avg_roi"`
	TotalPnL    float64 `json:"total_pnl"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

type Runner struct {
	news      *news.Client
	market    engine.MarketData
	scorer    engine.HeadlineScorer
	rules     engine.EntryRules
	timeframe string
	logger    *logger.Logger
}

func NewRunner(nc *news.Client, md engine.MarketData, scorer engine.HeadlineScorer, rules engine.EntryRules, timeframe string, log *logger.Logger) *Runner {
	return &Runner{
		news:      nc,
		market:    md,
		scorer:    scorer,
		rules:     rules,
		timeframe: timeframe,
		logger:    log,
	}
}

// Run fetches headlines in [start, end] and simulates each one.
func (r *Runner) Run(ctx context.Context, start, end time.Time, tickers []string) ([]SimTrade, error) {
	articles, err := r.news.FetchRange(ctx, start, end, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetch news range: %w", err)
	}
	r.logger.Info("headlines fetched", "count", len(articles))

	var out []SimTrade
	for _, a := range articles {
		res := r.scorer.Score(ctx, a.Headline, a.Sentiment)
		for _, ticker := range a.Tickers {
			out = append(out, r.simulate(ctx, ticker, a.Headline, res))
		}
	}
	return out, nil
}

func (r *Runner) simulate(ctx context.Context, ticker, headline string, res sentiment.Result) SimTrade {
	trade := SimTrade{
		Ticker:          ticker,
		Headline:        headline,
		Sentiment:       res.Label,
		SentimentScore:  res.Score,
		SentimentSource: res.Source,
	}

	bars, err := r.market.Bars(ctx, ticker, r.timeframe, simBarLimit)
	if err != nil {
		r.logger.Error("fetch bars", "ticker", ticker, "error", err)
	}
	if len(bars) == 0 {
		trade.Result = resultSkip
		trade.Reason = engine.ReasonNoPriceData
		return trade
	}

	if admit, _ := r.rules.Evaluate(res, bars); !admit {
		trade.Result = resultSkip
		trade.Reason = "Rules not met"
		return trade
	}

	entry := bars[len(bars)-1].Close
	peak := entry
	var exit float64
	reason := ""

	steps := simMaxSteps
	if len(bars) < steps {
		steps = len(bars)
	}
	for i := 1; i < steps; i++ {
		px := bars[len(bars)-i].Close
		if px > peak {
			peak = px
		}
		if peak > 0 && (peak-px)/peak >= simTrailing {
			exit = px
			reason = "TSL 10%"
			break
		}
	}
	if reason == "" {
		exit = bars[len(bars)-1].Close
		reason = "Timed exit"
	}

	roi := 0.0
	if entry != 0 {
		roi = math.Round((exit-entry)/entry*100*100) / 100
	}

	trade.EntryPrice = &entry
	trade.ExitPrice = &exit
	trade.ROI = &roi
	trade.Result = resultClosed
	trade.Reason = reason
	return trade
}

// Summarize computes the aggregate stats over closed simulated trades, with a
// crude running-equity drawdown.
func Summarize(trades []SimTrade) Summary {
	var s Summary
	var roiSum, pnlSum float64

	var equity, peak float64
	for _, t := range trades {
		if t.Result != resultClosed || t.EntryPrice == nil || t.ExitPrice == nil {
			continue
		}
		s.Trades++
		if t.ROI != nil {
			roiSum += *t.ROI
			if *t.ROI > 0 {
				s.Wins++
			}
		}
		pnl := *t.ExitPrice - *t.EntryPrice
		pnlSum += pnl

		equity += pnl
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}

	if s.Trades > 0 {
		s.WinRate = math.Round(float64(s.Wins)/float64(s.Trades)*100*100) / 100
		s.AvgROI = math.Round(roiSum/float64(s.Trades)*100) / 100
	}
	s.TotalPnL = math.Round(pnlSum*100) / 100
	s.MaxDrawdown = math.Round(s.MaxDrawdown*100) / 100
	return s
}
