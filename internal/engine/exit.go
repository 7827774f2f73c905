package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/storage"
)

// ExitEngine walks every open position once per cycle: refresh the trailing
// peak, then test the stop-loss and market-close rules. The stop-loss check
// runs first, so it wins when both would fire in the same poll.
type ExitEngine struct {
	repo     *storage.Repository
	market   MarketData
	notifier Alerter

	timeframe    string
	sessionLoc   *time.Location
	closeMinutes int

	// now is the clock used for the market-close check.
	now func() time.Time

	logger *logger.Logger
}

func NewExitEngine(repo *storage.Repository, md MarketData, notifier Alerter, cfg *config.Config, log *logger.Logger) *ExitEngine {
	return &ExitEngine{
		repo:         repo,
		market:       md,
		notifier:     notifier,
		timeframe:    cfg.Trading.BarTimeframe,
		sessionLoc:   cfg.SessionLocation(),
		closeMinutes: cfg.SessionCloseMinutes(),
		now:          time.Now,
		logger:       log,
	}
}

// RunOnce evaluates all open positions. Positions with no fetchable bar data
// are left untouched for this poll.
func (e *ExitEngine) RunOnce(ctx context.Context) error {
	trades, err := e.repo.OpenTrades()
	if err != nil {
		return fmt.Errorf("select open trades: %w", err)
	}

	for i := range trades {
		e.process(ctx, &trades[i])
	}
	return nil
}

func (e *ExitEngine) process(ctx context.Context, trade *storage.Trade) {
	bars, err := e.market.Bars(ctx, trade.Ticker, e.timeframe, 10)
	if err != nil {
		e.logger.Error("fetch bars for exit check", "ticker", trade.Ticker, "error", err)
	}
	if len(bars) == 0 {
		e.logger.Debug("no bar data, skipping exit check", "ticker", trade.Ticker)
		return
	}
	lastPrice := bars[len(bars)-1].Close

	// Trailing peak: monotonically non-decreasing while open, seeded from the
	// entry price.
	peak := lastPrice
	if trade.PeakPrice != nil && *trade.PeakPrice > peak {
		peak = *trade.PeakPrice
	}
	if trade.EntryPrice != nil && *trade.EntryPrice > peak {
		peak = *trade.EntryPrice
	}
	if trade.PeakPrice == nil || peak != *trade.PeakPrice {
		if err := e.repo.UpdatePeak(trade.ID, peak); err != nil {
			e.logger.Error("update peak", "ticker", trade.Ticker, "error", err)
		}
	}

	tsl := trade.TrailingStopPct
	if tsl == 0 {
		tsl = 10.0
	}

	var dropPct float64
	if peak != 0 {
		dropPct = (peak - lastPrice) / peak * 100
	}

	if dropPct >= tsl {
		reason := fmt.Sprintf("tsl_%v%%", tsl)
		e.close(trade, lastPrice, reason)
		return
	}

	if trade.MarketCloseExit && e.pastSessionClose() {
		e.close(trade, lastPrice, "market_close")
	}
}

// pastSessionClose reports whether the exchange-local clock has reached the
// configured session-close time.
func (e *ExitEngine) pastSessionClose() bool {
	now := e.now().In(e.sessionLoc)
	return now.Hour()*60+now.Minute() >= e.closeMinutes
}

// close performs the conditional exit update. The repository only closes a
// trade whose exit fields are still unset, so a concurrent or repeated close
// is a silent no-op and no duplicate alert is sent.
func (e *ExitEngine) close(trade *storage.Trade, exitPrice float64, reason string) {
	closed, err := e.repo.CloseTrade(trade.ID, exitPrice, reason)
	if err != nil {
		e.logger.Error("close trade", "ticker", trade.Ticker, "error", err)
		return
	}
	if !closed {
		return
	}

	e.logger.Info("position closed", "ticker", trade.Ticker, "exit_price", exitPrice, "reason", reason)
	e.notifier.NotifyExit(trade.Ticker, exitPrice, reason)
}
