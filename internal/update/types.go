package update

import (
	"strings"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region sentiment
// Sentiment is the categorical perception supplied by an external analyzer.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps free text to a Sentiment. Unknown values are neutral.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "positivo", "positiva":
		return SentimentPositive
	case "negative", "negativo", "negativa":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// #endregion sentiment

// #region signals

// Intent tags understood by the relationship engine.
const (
	IntentIntimacy      = "intimacy"
	IntentAggression    = "aggression"
	IntentVulnerability = "vulnerability"
)

// Signals carries the perception of one user message.
type Signals struct {
	Sentiment Sentiment `json:"sentiment"`
	Intents   []string  `json:"intents"`
}

// Has reports whether intent is present.
func (s Signals) Has(intent string) bool {
	for _, in := range s.Intents {
		if in == intent {
			return true
		}
	}
	return false
}

// #endregion signals

// #region results

// RelationshipResult is the next relationship vector and the applied change.
type RelationshipResult struct {
	Relationship npc.Relationship `json:"relationship"`
	Delta        npc.Relationship `json:"delta"`
}

// EvolutionResult is the next evolution vector. Delta is measured against the
// vector at the start of the call (after lazy initialization).
type EvolutionResult struct {
	Vector      npc.EvolutionVector `json:"vector"`
	Delta       npc.EvolutionVector `json:"delta"`
	Initialized bool                `json:"initialized"`
}

// ExperienceResult reports xp, intimacy and trait progress for one interaction.
// IntimacyDelta is the requested change before the stat is clamped.
type ExperienceResult struct {
	XPGained      int                `json:"xp_gained"`
	IntimacyDelta float64            `json:"intimacy_delta"`
	TraitChanges  map[string]float64 `json:"trait_changes"`
	LevelUp       bool               `json:"level_up"`
	Stats         npc.Stats          `json:"stats"`
	Traits        map[string]float64 `json:"traits,omitempty"`
}

// #endregion results

// #region helpers

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

// containsAny reports whether lower contains any of the phrases.
func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// #endregion helpers
