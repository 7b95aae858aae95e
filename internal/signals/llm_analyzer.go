package signals

import (
	"context"
	"strings"

	"github.com/danielpatrickdp/npc-companion/internal/llm"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

const sentimentPrompt = "Classify the sentiment of the user's message. " +
	"Answer with exactly one word: positive, neutral or negative."

// LLMAnalyzer asks a model for the sentiment label. Any provider error or
// unparseable answer falls back to the lexicon.
type LLMAnalyzer struct {
	provider llm.Provider
	fallback *Lexicon
}

// NewLLMAnalyzer wraps provider.
func NewLLMAnalyzer(provider llm.Provider) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, fallback: NewLexicon()}
}

// Analyze implements SentimentAnalyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string) (update.Sentiment, error) {
	if a.provider == nil {
		return a.fallback.Score(text), nil
	}
	reply, err := a.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: sentimentPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: 3,
	})
	if err != nil {
		return a.fallback.Score(text), nil
	}
	label := strings.Trim(strings.ToLower(strings.TrimSpace(reply)), ".!\"' ")
	switch label {
	case "positive", "neutral", "negative":
		return update.Sentiment(label), nil
	}
	return a.fallback.Score(text), nil
}
