package engine

import (
	"fmt"
	"strconv"

	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/storage"
)

// Audit event names for manual operator interventions.
const (
	EventTrailingStopChange    = "tsl_change"
	EventMarketCloseExitChange = "market_close_exit_change"
	EventManualExit            = "manual_exit"
)

// Admin applies operator overrides to open positions. Every mutation appends
// an immutable trade_events row; the events are written only by this type and
// consumed only by the dashboard.
type Admin struct {
	repo     *storage.Repository
	notifier Alerter
	logger   *logger.Logger
}

func NewAdmin(repo *storage.Repository, notifier Alerter, log *logger.Logger) *Admin {
	return &Admin{repo: repo, notifier: notifier, logger: log}
}

// SetTrailingStop changes a position's trailing stop-loss percentage.
func (a *Admin) SetTrailingStop(tradeID uint, pct float64) error {
	if pct <= 0 {
		return fmt.Errorf("trailing stop must be positive, got %v", pct)
	}

	return a.repo.Transaction(func(tx *storage.Repository) error {
		trade, err := tx.GetTrade(tradeID)
		if err != nil {
			return fmt.Errorf("load trade %d: %w", tradeID, err)
		}
		if err := tx.SetTrailingStop(tradeID, pct); err != nil {
			return err
		}
		return tx.RecordTradeEvent(tradeID, EventTrailingStopChange,
			formatFloat(trade.TrailingStopPct), formatFloat(pct))
	})
}

// SetMarketCloseExit toggles the forced end-of-session exit for a position.
func (a *Admin) SetMarketCloseExit(tradeID uint, enabled bool) error {
	return a.repo.Transaction(func(tx *storage.Repository) error {
		trade, err := tx.GetTrade(tradeID)
		if err != nil {
			return fmt.Errorf("load trade %d: %w", tradeID, err)
		}
		if err := tx.SetMarketCloseExit(tradeID, enabled); err != nil {
			return err
		}
		return tx.RecordTradeEvent(tradeID, EventMarketCloseExitChange,
			strconv.FormatBool(trade.MarketCloseExit), strconv.FormatBool(enabled))
	})
}

// ManualExit closes an open position at the caller-supplied price. Closing an
// already-closed position is an error surfaced to the operator, not a silent
// overwrite.
func (a *Admin) ManualExit(tradeID uint, price float64) error {
	trade, err := a.repo.GetTrade(tradeID)
	if err != nil {
		return fmt.Errorf("load trade %d: %w", tradeID, err)
	}

	var closed bool
	err = a.repo.Transaction(func(tx *storage.Repository) error {
		var err error
		closed, err = tx.CloseTrade(tradeID, price, EventManualExit)
		if err != nil {
			return err
		}
		if !closed {
			return nil
		}
		return tx.RecordTradeEvent(tradeID, EventManualExit, "", formatFloat(price))
	})
	if err != nil {
		return err
	}
	if !closed {
		return fmt.Errorf("trade %d is not open", tradeID)
	}

	a.logger.Info("manual exit", "trade_id", tradeID, "ticker", trade.Ticker, "price", price)
	a.notifier.NotifyExit(trade.Ticker, price, EventManualExit)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
