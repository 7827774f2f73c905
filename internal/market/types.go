package market

import "time"

// Bar is a single OHLCV bar. Series are always chronologically ordered,
// oldest first.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Account is the broker account snapshot used for capital checks.
type Account struct {
	Cash        float64
	BuyingPower float64
	Equity      float64
}
