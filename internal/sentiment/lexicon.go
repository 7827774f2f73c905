package sentiment

import (
	"context"
	"math"
	"strings"
)

// lexicon maps finance-news terms to polarity weights. Deliberately small:
// this is the last-resort scorer when the provider tag is absent and the LLM
// is unreachable.
var lexicon = map[string]float64{
	"beats":        1.6,
	"beat":         1.2,
	"surges":       1.8,
	"surge":        1.5,
	"soars":        1.8,
	"jumps":        1.4,
	"rallies":      1.3,
	"record":       1.0,
	"upgrade":      1.5,
	"upgraded":     1.5,
	"upgrades":     1.5,
	"outperform":   1.2,
	"growth":       0.8,
	"profit":       0.9,
	"profits":      0.9,
	"approval":     1.2,
	"approves":     1.2,
	"buyback":      1.0,
	"dividend":     0.6,
	"wins":         1.1,
	"expands":      0.7,
	"strong":       0.8,
	"raises":       1.0,
	"misses":       -1.6,
	"miss":         -1.2,
	"plunges":      -1.8,
	"plunge":       -1.5,
	"sinks":        -1.5,
	"tumbles":      -1.4,
	"falls":        -1.0,
	"drops":        -1.0,
	"downgrade":    -1.5,
	"downgraded":   -1.5,
	"downgrades":   -1.5,
	"underperform": -1.2,
	"loss":         -0.9,
	"losses":       -0.9,
	"lawsuit":      -1.2,
	"probe":        -1.1,
	"recall":       -1.3,
	"bankruptcy":   -2.0,
	"fraud":        -1.8,
	"cuts":         -1.0,
	"weak":         -0.8,
	"warns":        -1.2,
	"halts":        -1.1,
	"delays":       -0.9,
}

// LexiconScorer is a wordlist scorer. It never abstains.
type LexiconScorer struct{}

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

func (s *LexiconScorer) Score(_ context.Context, headline string) (Result, bool) {
	var raw float64
	for _, word := range strings.Fields(strings.ToLower(headline)) {
		word = strings.Trim(word, ".,:;!?'\"()[]")
		if w, ok := lexicon[word]; ok {
			raw += w
		}
	}

	// Squash the raw sum into [-1, 1].
	score := raw / math.Sqrt(raw*raw+15)
	score = math.Round(score*10000) / 10000

	res := Result{Score: score, Source: "lexicon"}
	switch {
	case score > 0.1:
		res.Label = LabelBullish
	case score < -0.1:
		res.Label = LabelBearish
	default:
		res.Label = LabelNeutral
	}
	return res, true
}
