package signals

import (
	"context"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region word-lists
var (
	positiveWords = []string{
		"grazie", "bello", "bella", "bellissimo", "bellissima", "felice", "contento", "contenta",
		"fantastico", "fantastica", "adoro", "amo", "meraviglioso", "perfetto", "bravo", "brava",
		"great", "good", "happy", "love", "awesome", "wonderful", "thanks", "thank", "nice", "glad",
		"genial", "merci", "gracias",
	}
	negativeWords = []string{
		"triste", "odio", "brutto", "brutta", "arrabbiato", "arrabbiata", "stupido", "stupida",
		"schifo", "male", "stanco", "stanca", "deluso", "delusa", "noioso", "noiosa",
		"sad", "hate", "bad", "angry", "awful", "terrible", "stupid", "tired", "boring", "upset",
	}
	negators = map[string]bool{"non": true, "not": true, "no": true, "mai": true, "never": true}
)

const negationWindow = 3

// #endregion word-lists

// #region lexicon

// Lexicon scores sentiment by counting polar words. It never fails.
type Lexicon struct {
	positive map[string]bool
	negative map[string]bool
}

// NewLexicon returns an analyzer over the built-in word lists.
func NewLexicon() *Lexicon {
	l := &Lexicon{positive: map[string]bool{}, negative: map[string]bool{}}
	for _, w := range positiveWords {
		l.positive[w] = true
	}
	for _, w := range negativeWords {
		l.negative[w] = true
	}
	return l
}

// Analyze implements SentimentAnalyzer.
func (l *Lexicon) Analyze(_ context.Context, text string) (update.Sentiment, error) {
	return l.Score(text), nil
}

// Score classifies text without a context.
func (l *Lexicon) Score(text string) update.Sentiment {
	tokens := tokenize(text)
	score := 0
	// a negator flips the first polar word within the next negationWindow tokens
	negate := 0
	for _, tok := range tokens {
		if negators[tok] {
			negate = negationWindow
			continue
		}
		polarity := 0
		switch {
		case l.positive[tok]:
			polarity = 1
		case l.negative[tok]:
			polarity = -1
		}
		if negate > 0 {
			negate--
			if polarity != 0 {
				polarity = -polarity
				negate = 0
			}
		}
		score += polarity
	}
	switch {
	case score > 0:
		return update.SentimentPositive
	case score < 0:
		return update.SentimentNegative
	default:
		return update.SentimentNeutral
	}
}

// #endregion lexicon

// #region helpers

// tokenize splits text into lowercase letter runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// #endregion helpers
