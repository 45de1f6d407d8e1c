package sentiment

import "strings"

// Word lists for the quick lexicon analyzer. Matching is substring based,
// so "loved" counts as a hit for "love".
var (
	positiveWords = []string{
		"amazing", "excellent", "great", "love", "recommend",
		"fantastic", "wonderful", "perfect", "best", "awesome",
	}
	negativeWords = []string{
		"terrible", "awful", "hate", "worst", "disappointing",
		"horrible", "bad", "poor", "waste", "useless",
	}
)

// LexiconResult is the output of the lexicon analyzer.
type LexiconResult struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// AnalyzeLexicon classifies text by counting positive and negative keyword
// hits. Confidence ramps from 0.85 by 0.05 per hit, capped at 0.99; a tie
// is neutral at 0.60. It needs no trained model, which makes it useful as a
// smoke test for the whole envelope plumbing.
func AnalyzeLexicon(text string) LexiconResult {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return LexiconResult{Sentiment: "positive", Confidence: rampConfidence(positive)}
	case negative > positive:
		return LexiconResult{Sentiment: "negative", Confidence: rampConfidence(negative)}
	default:
		return LexiconResult{Sentiment: "neutral", Confidence: 0.60}
	}
}

func rampConfidence(hits int) float64 {
	c := 0.85 + float64(hits)*0.05
	if c > 0.99 {
		c = 0.99
	}
	return c
}
