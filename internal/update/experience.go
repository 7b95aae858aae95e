package update

import (
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region experience-config
const (
	baseXP          = 10
	longMessageXP   = 5
	positiveXP      = 10
	xpLongMessage   = 50
	xpPerLevel      = 1000
	maxStatIntimacy = npc.MaxStatIntimacy

	DefaultIntimacyGrowthRate = 1.0
	empathyGain               = 0.01
)

var romanticKeywords = []string{
	"ti amo", "amore", "tesoro", "bacio", "baci", "cuore", "romantic",
	"i love you", "kiss", "sweetheart", "darling",
	"te quiero", "je t'aime",
}

// #endregion experience-config

// #region process-interaction

// ProcessInteraction computes xp, intimacy and trait progress for one message.
// The level check is single-step: one call raises the level by at most one
// even if the new xp crosses several thresholds. p is not modified.
func ProcessInteraction(p *npc.Profile, userMessage string, s Sentiment) ExperienceResult {
	xp := baseXP
	if utf8.RuneCountInString(userMessage) > xpLongMessage {
		xp += longMessageXP
	}
	if s == SentimentPositive {
		xp += positiveXP
	}

	rate := DefaultIntimacyGrowthRate
	if p.EvolutionRules.IntimacyGrowthRate != nil {
		rate = *p.EvolutionRules.IntimacyGrowthRate
	}
	var intimacyDelta float64
	switch s {
	case SentimentPositive:
		intimacyDelta = rate * 5
	case SentimentNegative:
		intimacyDelta = -rate * 2
	}

	stats := p.Stats
	if stats.Level < 1 {
		stats.Level = 1
	}
	stats.XP += xp
	stats.Intimacy = clamp(stats.Intimacy+intimacyDelta, 0, maxStatIntimacy)

	levelUp := false
	if stats.XP >= stats.Level*xpPerLevel {
		stats.Level++
		levelUp = true
	}

	traits := make(map[string]float64, len(p.Traits))
	for k, v := range p.Traits {
		traits[k] = clamp01(v)
	}
	changes := map[string]float64{}
	if empathy, ok := traits["empathy"]; ok && containsAny(strings.ToLower(userMessage), romanticKeywords) {
		next := clamp01(empathy + empathyGain)
		traits["empathy"] = next
		if d := next - empathy; d != 0 {
			changes["empathy"] = d
		}
	}

	return ExperienceResult{
		XPGained:      xp,
		IntimacyDelta: intimacyDelta,
		TraitChanges:  changes,
		LevelUp:       levelUp,
		Stats:         stats,
		Traits:        traits,
	}
}

// ApplyExperience runs ProcessInteraction and stores stats and traits on p.
func ApplyExperience(p *npc.Profile, userMessage string, s Sentiment) ExperienceResult {
	res := ProcessInteraction(p, userMessage, s)
	p.Stats = res.Stats
	if p.Traits != nil || len(res.Traits) > 0 {
		p.Traits = res.Traits
	}
	return res
}

// #endregion process-interaction
