package orchestrator

// #region imports
import (
	"strings"
	"unicode"
)

// #endregion

// #region failure-type

// FailureType names why a generated reply is unusable.
type FailureType string

const (
	FailureNone           FailureType = ""
	FailureEmpty          FailureType = "empty"
	FailureRepetition     FailureType = "repetition"
	FailureBreaksPersona  FailureType = "breaks_persona"
	FailureAssistantVoice FailureType = "assistant_voice"
)

// ReplyEvaluation is the outcome of EvaluateReply.
type ReplyEvaluation struct {
	FailureType FailureType `json:"failure_type,omitempty"`
	Usable      bool        `json:"usable"`
}

// #endregion

// #region persona-patterns

// personaBreaks reveal that the companion is a model.
var personaBreaks = []string{
	"as an ai",
	"as a language model",
	"i'm an ai",
	"i am an ai",
	"language model",
	"sono un'intelligenza artificiale",
	"sono un'ia",
	"come intelligenza artificiale",
	"modello linguistico",
	"sono un assistente virtuale",
}

// assistantVoice is help-desk phrasing that does not fit a companion.
var assistantVoice = []string{
	"how can i help",
	"how can i assist",
	"what can i do for you",
	"is there anything else",
	"come posso aiutarti",
	"posso aiutarti in qualche",
	"c'è altro che posso fare",
}

// #endregion

// #region evaluate

// EvaluateReply checks a generated reply by string analysis. No model call.
func EvaluateReply(reply string) ReplyEvaluation {
	failure := detectFailure(reply)
	return ReplyEvaluation{FailureType: failure, Usable: failure == FailureNone}
}

func detectFailure(reply string) FailureType {
	trimmed := strings.TrimFunc(reply, unicode.IsSpace)
	if trimmed == "" {
		return FailureEmpty
	}
	lower := strings.ToLower(trimmed)

	for _, p := range personaBreaks {
		if strings.Contains(lower, p) {
			return FailureBreaksPersona
		}
	}
	if hasRepetition(lower) {
		return FailureRepetition
	}

	// Short help-desk replies only; a long reply may quote the phrase.
	if len(strings.Fields(trimmed)) < 30 {
		for _, p := range assistantVoice {
			if strings.Contains(lower, p) {
				return FailureAssistantVoice
			}
		}
	}
	return FailureNone
}

// #endregion

// #region repetition-check

// hasRepetition reports 3+ identical sentences longer than 10 bytes.
func hasRepetition(lower string) bool {
	sentences := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) < 3 {
		return false
	}
	counts := make(map[string]int)
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s)
		if len(trimmed) > 10 {
			counts[trimmed]++
		}
	}
	for _, c := range counts {
		if c >= 3 {
			return true
		}
	}
	return false
}

// #endregion
