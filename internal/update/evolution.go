package update

import (
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/npc-companion/internal/npc"
)

// #region evolution-defaults
const (
	DefaultBaseAttachment        = 0.5
	DefaultVulnerability         = 0.1
	DefaultAttachmentSensitivity = 0.01

	longMessageRunes = 30
)

// #endregion evolution-defaults

// #region evolution-keywords
var (
	gratitudeKeywords = []string{
		"grazie", "ti ringrazio", "sei importante", "sei speciale", "ci tengo", "apprezzo",
		"thank", "you mean a lot", "important to me", "appreciate",
		"gracias", "merci",
	}
	rejectionKeywords = []string{
		"lasciami stare", "vattene", "non mi interessa", "non ti sopporto", "sei inutile",
		"leave me alone", "go away", "i don't care", "you're useless",
		"déjame", "laisse-moi",
	}
	secretKeywords = []string{
		"segreto", "non l'ho mai detto", "non dirlo a nessuno", "confesso", "tra noi",
		"secret", "never told anyone", "between us", "confess",
		"secreto",
	}
)

// #endregion evolution-keywords

// #region evolve

// Evolve computes the next evolution vector for one user message without
// touching p. A profile with no vector is initialized from
// CoreTraits["attachment"] first. IntimacyLevel is left unbounded.
func Evolve(p *npc.Profile, userMessage string) EvolutionResult {
	var start npc.EvolutionVector
	initialized := false
	if p.Evolution != nil {
		start = *p.Evolution
	} else {
		start = initialEvolution(p)
		initialized = true
	}

	sensitivity := DefaultAttachmentSensitivity
	if p.EvolutionRules.AttachmentSensitivity != nil {
		sensitivity = *p.EvolutionRules.AttachmentSensitivity
	}

	next := start
	lower := strings.ToLower(userMessage)

	if utf8.RuneCountInString(userMessage) > longMessageRunes {
		next.Attachment += sensitivity
	}
	if containsAny(lower, gratitudeKeywords) {
		next.Vulnerability += 0.02
		next.Attachment += 0.01
	}
	if containsAny(lower, rejectionKeywords) {
		next.Attachment -= 0.05
		next.Vulnerability -= 0.01
	}
	if containsAny(lower, secretKeywords) {
		next.IntimacyLevel += 0.05
	}

	next.Attachment = clamp01(next.Attachment)
	next.Vulnerability = clamp01(next.Vulnerability)

	return EvolutionResult{
		Vector: next,
		Delta: npc.EvolutionVector{
			Attachment:    next.Attachment - start.Attachment,
			Vulnerability: next.Vulnerability - start.Vulnerability,
			IntimacyLevel: next.IntimacyLevel - start.IntimacyLevel,
		},
		Initialized: initialized,
	}
}

// ApplyEvolution runs Evolve and stores the vector on p.
func ApplyEvolution(p *npc.Profile, userMessage string) EvolutionResult {
	res := Evolve(p, userMessage)
	vec := res.Vector
	p.Evolution = &vec
	return res
}

func initialEvolution(p *npc.Profile) npc.EvolutionVector {
	base := DefaultBaseAttachment
	if v, ok := p.CoreTraits["attachment"]; ok {
		base = clamp01(v)
	}
	return npc.EvolutionVector{
		Attachment:    base,
		Vulnerability: DefaultVulnerability,
	}
}

// #endregion evolve
