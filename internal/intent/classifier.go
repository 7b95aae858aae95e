package intent

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// #region random

// RandomSource is the draw used for probabilistic reply decisions.
// *rand.Rand satisfies it; tests inject a fixed sequence.
type RandomSource interface {
	Float64() float64
}

// #endregion random

// #region config

// ClassifierConfig holds the tunable policy of the user intent classifier.
type ClassifierConfig struct {
	AudioProbability float64 // chance of an audio reply on flirty/emotional tone
	ShortMessageLen  int     // messages at or below this many runes stay text-only
}

// DefaultClassifierConfig returns the production policy.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		AudioProbability: 0.6,
		ShortMessageLen:  4,
	}
}

// audioEmoji make an audio reply likely even without explicit wording.
var audioEmoji = []string{"🎵", "🎶", "🎤", "🎧", "🔊", "🎙"}

// #endregion config

// #region classifier

// Classifier tags a user message with media desire and tone flags.
type Classifier struct {
	rules  Rules
	config ClassifierConfig

	mu  sync.Mutex // guards rng
	rng RandomSource
}

// NewClassifier builds a classifier over the default rule table.
// A nil rng gets a time-seeded source.
func NewClassifier(rng RandomSource, config ClassifierConfig) *Classifier {
	return NewClassifierWithRules(DefaultRules(), rng, config)
}

// NewClassifierWithRules builds a classifier over a custom rule table.
func NewClassifierWithRules(rules Rules, rng RandomSource, config ClassifierConfig) *Classifier {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Classifier{rules: rules, config: config, rng: rng}
}

// #endregion classifier

// #region classify

// Classify derives the Intent of message. priorAIText is the NPC's previous
// reply: emotional self-disclosure there forces Tone.Emotional so the next
// turn may escalate. opts.Language is accepted for the record; the tables are
// multilingual and are always matched in full.
func (c *Classifier) Classify(message, priorAIText string, opts Options) Intent {
	lower := strings.ToLower(message)

	in := Intent{
		WantsPhoto: c.rules.Match(CategoryPhoto, lower),
		WantsAudio: c.rules.Match(CategoryAudio, lower),
		Joking:     c.rules.Match(CategoryJoking, lower),
		Tone: Tone{
			Flirty:    c.rules.Match(CategoryFlirty, lower),
			Emotional: c.rules.Match(CategoryEmotional, lower),
			Angry:     c.rules.Match(CategoryAngry, lower),
		},
	}

	// Photo wins when both media kinds are named.
	switch {
	case in.WantsPhoto:
		in.ExplicitMediaType = MediaPhoto
	case in.WantsAudio:
		in.ExplicitMediaType = MediaAudio
	}

	if priorAIText != "" && c.rules.Match(CategoryAIEmotional, strings.ToLower(priorAIText)) {
		in.Tone.Emotional = true
	}

	return in
}

// #endregion classify

// #region audio-decision

// ShouldReplyWithAudio decides whether the NPC answers with a voice message.
// The flirty/emotional branch is a Bernoulli draw from the injected source.
func (c *Classifier) ShouldReplyWithAudio(message, priorAIText string, in Intent, opts Options) bool {
	if in.ExplicitMediaType == MediaAudio || in.WantsAudio {
		return true
	}
	if utf8.RuneCountInString(stripSpace(message)) <= c.config.ShortMessageLen {
		return false
	}
	if in.Tone.Flirty || in.Tone.Emotional {
		return c.draw() < c.config.AudioProbability
	}
	for _, e := range audioEmoji {
		if strings.Contains(message, e) {
			return true
		}
	}
	return false
}

func (c *Classifier) draw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// #endregion audio-decision
