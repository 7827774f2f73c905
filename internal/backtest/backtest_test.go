package backtest

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func ptr(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	trades := []SimTrade{
		{Result: resultClosed, EntryPrice: ptr(100), ExitPrice: ptr(110), ROI: ptr(10)},
		{Result: resultClosed, EntryPrice: ptr(50), ExitPrice: ptr(45), ROI: ptr(-10)},
		{Result: resultClosed, EntryPrice: ptr(200), ExitPrice: ptr(210), ROI: ptr(5)},
		{Result: resultSkip, Reason: "Rules not met"},
	}

	s := Summarize(trades)

	// Ensure skips are excluded from every aggregate.
	assert.Equal(t, s.Trades, 3)
	assert.Equal(t, s.Wins, 2)
	assert.Equal(t, s.WinRate, 66.67)
	assert.Equal(t, s.AvgROI, 1.67)
	assert.Equal(t, s.TotalPnL, 15.0)

	// Drawdown is measured off the running-equity peak: +10, then -5.
	assert.Equal(t, s.MaxDrawdown, 5.0)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, s.Trades, 0)
	assert.Equal(t, s.WinRate, 0.0)
	assert.Equal(t, s.TotalPnL, 0.0)
}
