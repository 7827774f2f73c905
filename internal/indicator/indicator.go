// Package indicator implements the intraday indicators backing the entry
// rules: cumulative VWAP, relative volume and resistance breakout. All
// functions are pure over a chronologically ordered bar series.
package indicator

import (
	"math"

	"github.com/kbxbnb/BnBot/internal/market"
)

// VWAP computes the volume-weighted average price cumulatively from the start
// of the supplied window to the latest bar. Not a rolling window: the whole
// series is the window. Without any volume the value is NaN, which never
// passes the close-above-VWAP comparison.
func VWAP(bars []market.Bar) float64 {
	var pv, vv float64
	for _, b := range bars {
		pv += b.Close * b.Volume
		vv += b.Volume
	}
	if vv == 0 {
		return math.NaN()
	}
	return pv / vv
}

// RVOL is the latest bar volume over the mean volume of the prior window
// bars, excluding the latest. Series shorter than window+1 bars yield 1.0.
func RVOL(bars []market.Bar, window int) float64 {
	if len(bars) < window+1 {
		return 1.0
	}
	var sum float64
	for _, b := range bars[len(bars)-window-1 : len(bars)-1] {
		sum += b.Volume
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 1.0
	}
	return bars[len(bars)-1].Volume / avg
}

// BreaksResistance reports whether the latest close exceeds the maximum high
// of the lookback bars preceding it. When the series has no more than
// lookback bars, the maximum is taken over every high including the latest
// bar, so a flat-topped series can never break out.
func BreaksResistance(bars []market.Bar, lookback int) bool {
	if len(bars) == 0 {
		return false
	}

	last := bars[len(bars)-1]
	var window []market.Bar
	if len(bars) > lookback {
		window = bars[len(bars)-1-lookback : len(bars)-1]
	} else {
		window = bars
	}

	high := math.Inf(-1)
	for _, b := range window {
		if b.High > high {
			high = b.High
		}
	}
	return last.Close > high
}
