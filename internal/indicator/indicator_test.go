package indicator

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"

	"github.com/kbxbnb/BnBot/internal/market"
)

func barsFrom(closes, volumes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i := range closes {
		bars[i] = market.Bar{Close: closes[i], High: closes[i], Volume: volumes[i]}
	}
	return bars
}

func TestVWAP(t *testing.T) {
	// Ensure constant volume reduces VWAP to the mean close.
	bars := barsFrom([]float64{10, 20, 30}, []float64{5, 5, 5})
	assert.Equal(t, VWAP(bars), 20.0)

	// Ensure VWAP weights by volume.
	bars = barsFrom([]float64{10, 20}, []float64{1, 3})
	assert.Equal(t, VWAP(bars), 17.5)

	// Ensure zero total volume yields NaN, which fails any comparison.
	bars = barsFrom([]float64{10, 20}, []float64{0, 0})
	v := VWAP(bars)
	assert.True(t, math.IsNaN(v))
	assert.False(t, bars[len(bars)-1].Close > v)
}

func TestRVOL(t *testing.T) {
	// Ensure a series shorter than window+1 bars yields the neutral 1.0.
	bars := barsFrom([]float64{1, 1, 1}, []float64{100, 100, 100})
	assert.Equal(t, RVOL(bars, 3), 1.0)

	// Ensure the latest bar is excluded from the baseline average.
	bars = barsFrom([]float64{1, 1, 1, 1}, []float64{100, 200, 300, 400})
	assert.Equal(t, RVOL(bars, 3), 2.0)

	// Ensure a zero baseline average yields the neutral 1.0.
	bars = barsFrom([]float64{1, 1, 1, 1}, []float64{0, 0, 0, 500})
	assert.Equal(t, RVOL(bars, 3), 1.0)
}

func TestBreaksResistance(t *testing.T) {
	highs := []float64{10, 12, 9, 11, 15}
	bars := make([]market.Bar, len(highs))
	for i, h := range highs {
		bars[i] = market.Bar{High: h, Close: h}
	}

	// Ensure the latest close above the prior lookback highs is a breakout.
	assert.True(t, BreaksResistance(bars, 3))

	// Ensure a close at or below the window high is not a breakout.
	bars[len(bars)-1].Close = 12
	assert.False(t, BreaksResistance(bars, 3))

	// Ensure short series include the latest high in the window, so a
	// flat-topped series cannot break out.
	flat := barsFrom([]float64{10, 10, 10}, []float64{1, 1, 1})
	assert.False(t, BreaksResistance(flat, 5))

	// Ensure an empty series never breaks out.
	assert.False(t, BreaksResistance(nil, 3))
}
