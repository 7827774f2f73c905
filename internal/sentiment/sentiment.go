// Package sentiment turns a headline into a (label, score, source) triple.
// Scoring is an ordered chain of scorers, each of which either returns a
// result or abstains; the chain stops at the first non-abstaining scorer.
package sentiment

import (
	"context"
	"strings"
)

const (
	LabelVeryBullish = "very bullish"
	LabelBullish     = "bullish"
	LabelNeutral     = "neutral"
	LabelBearish     = "bearish"
	LabelVeryBearish = "very bearish"
)

// Result is a scored headline.
type Result struct {
	Label  string
	Score  float64
	Source string
}

// Bullish reports whether the label admits a long entry.
func (r Result) Bullish() bool {
	return r.Label == LabelBullish || r.Label == LabelVeryBullish
}

// Scorer scores a headline, or abstains by returning ok = false.
type Scorer interface {
	Score(ctx context.Context, headline string) (result Result, ok bool)
}

// Chain tries the provider-supplied label first, then each scorer in order.
// When everything abstains the result is neutral from an unknown source.
type Chain struct {
	scorers []Scorer
}

func NewChain(scorers ...Scorer) *Chain {
	return &Chain{scorers: scorers}
}

// Score resolves sentiment for a headline. providerLabel is the label shipped
// with the article, if any; it takes priority over every scorer.
func (c *Chain) Score(ctx context.Context, headline, providerLabel string) Result {
	if res, ok := normalizeProvider(providerLabel); ok {
		return res
	}
	for _, s := range c.scorers {
		if res, ok := s.Score(ctx, headline); ok {
			return res
		}
	}
	return Result{Label: LabelNeutral, Score: 0, Source: "unknown"}
}

// normalizeProvider maps a provider sentiment tag onto the local label set.
// Unrecognized tags abstain so the rest of the chain runs.
func normalizeProvider(label string) (Result, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "bullish", "positive", "very bullish":
		return Result{Label: LabelBullish, Score: 0.8, Source: "benzinga"}, true
	case "bearish", "negative", "very bearish":
		return Result{Label: LabelBearish, Score: -0.8, Source: "benzinga"}, true
	case "neutral":
		return Result{Label: LabelNeutral, Score: 0, Source: "benzinga"}, true
	}
	return Result{}, false
}
