package input

import (
	"strings"
	"unicode"
)

// #region keywords

// attentionKeywords signal that the user is talking to the NPC even without
// naming it. They match whole words only, so "they" does not count as "hey".
var attentionKeywords = []string{
	"ciao", "hey", "hello", "ehi", "hola", "salut", "bonjour",
	"buongiorno", "buonasera", "hallo", "ascolta", "senti", "listen", "oye",
}

var mediaKeywords = []string{
	"foto", "photo", "pic", "selfie", "immagine",
	"video", "audio", "vocale", "voice",
}

// #endregion keywords

// #region normalize

// Normalize collapses every whitespace run to a single space and trims the edges.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(raw), " ")
}

// #endregion normalize

// #region detect

// DetectAddressed reports whether text is directed at the NPC: either the name
// appears (case-insensitive substring) or a greeting/attention keyword appears
// as a word.
func DetectAddressed(text, npcName string) bool {
	lower := strings.ToLower(text)
	if lower == "" {
		return false
	}
	if name := strings.ToLower(strings.TrimSpace(npcName)); name != "" && strings.Contains(lower, name) {
		return true
	}
	return containsWord(lower, attentionKeywords)
}

// DetectMediaRequest reports whether text mentions a media artifact.
func DetectMediaRequest(text string) bool {
	return containsAny(strings.ToLower(text), mediaKeywords)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord splits lower on anything that is not a letter or digit and
// reports whether one of the words equals a keyword.
func containsWord(lower string, keywords []string) bool {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, kw := range keywords {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// #endregion detect
