package intent

import (
	"strings"

	"github.com/samber/lo"
)

// #region categories

// Category names one trigger list in the rule table.
type Category string

const (
	CategoryPhoto       Category = "photo"
	CategoryAudio       Category = "audio"
	CategoryJoking      Category = "joking"
	CategoryFlirty      Category = "flirty"
	CategoryEmotional   Category = "emotional"
	CategoryAngry       Category = "angry"
	CategoryAIEmotional Category = "ai_emotional" // matched against the previous AI reply
)

// #endregion categories

// #region rules

// Rules maps each category to its trigger phrases. Every category is
// any-match: the first hit sets the flag, order inside a list is irrelevant,
// and all categories are evaluated for every message.
type Rules map[Category][]string

// DefaultRules returns the built-in multilingual trigger tables.
func DefaultRules() Rules {
	return Rules{
		CategoryPhoto: {
			"foto", "photo", "picture", "selfie", "immagine", "fammi vedere",
			"mostrami", "show me", "📸", "📷",
		},
		CategoryAudio: {
			"audio", "vocale", "voice", "messaggio vocale", "la tua voce",
			"sentirti", "hear you", "canta", "sing me", "nota de voz",
		},
		CategoryJoking: {
			"haha", "ahah", "lol", "lmao", "scherzo", "scherzavo", "just kidding",
			"jk", "xd", "😂", "🤣", "😜", "jaja",
		},
		CategoryFlirty: {
			"bella", "bellissima", "sexy", "carina", "cute", "baciami", "kiss",
			"bacio", "tesoro", "amore", "flirt", "guapa", "mignonne",
			"😘", "😍", "😏", "😉", "❤️",
		},
		CategoryEmotional: {
			"mi manchi", "miss you", "triste", "sad", "ti voglio bene", "mi sento",
			"i feel", "lonely", "piango", "crying", "depress", "ho paura",
			"scared", "te extraño", "tu me manques", "😢", "😭", "🥺",
		},
		CategoryAngry: {
			"odio", "i hate", "hate you", "vaffanculo", "stupida", "stupid", "idiota", "idiot",
			"arrabbiat", "angry", "furious", "shut up", "stai zitta", "🤬", "😡",
		},
		CategoryAIEmotional: {
			"mi manchi", "ti penso", "mi sento sola", "mi sono sentita",
			"non vedo l'ora di sentirti", "i miss you", "i've been thinking about you",
			"i feel lonely", "i felt so",
		},
	}
}

// Match reports whether lower (already lowercased) contains any trigger of c.
func (r Rules) Match(c Category, lower string) bool {
	return lo.ContainsBy(r[c], func(trigger string) bool {
		return strings.Contains(lower, trigger)
	})
}

// #endregion rules
