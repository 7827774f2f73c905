package engine

import (
	"github.com/kbxbnb/BnBot/internal/indicator"
	"github.com/kbxbnb/BnBot/internal/market"
	"github.com/kbxbnb/BnBot/internal/sentiment"
)

// Rejection reasons persisted on skipped rows. Fixed strings: the dashboard
// groups on them.
const (
	ReasonNotBullish  = "Sentiment not bullish"
	ReasonNoPriceData = "No price data"
	ReasonRulesNotMet = "VWAP/RVOL/Resistance not met"
)

// EntryRules holds the indicator parameters applied to every candidate.
type EntryRules struct {
	RvolThreshold      float64
	RvolWindow         int
	ResistanceLookback int
}

// Evaluate decides admit/reject for a scored headline against a bar series.
// Pure: no side effects, no I/O. A rejected signal carries one of the fixed
// reasons above.
func (r EntryRules) Evaluate(res sentiment.Result, bars []market.Bar) (bool, string) {
	if !res.Bullish() {
		return false, ReasonNotBullish
	}
	if len(bars) == 0 {
		return false, ReasonNoPriceData
	}

	last := bars[len(bars)-1].Close
	aboveVWAP := last > indicator.VWAP(bars)
	rvol := indicator.RVOL(bars, r.RvolWindow)
	breakout := indicator.BreaksResistance(bars, r.ResistanceLookback)

	if !aboveVWAP || rvol <= r.RvolThreshold || !breakout {
		return false, ReasonRulesNotMet
	}
	return true, ""
}
