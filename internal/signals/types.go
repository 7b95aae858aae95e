package signals

import (
	"context"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region analyzer-interface

// SentimentAnalyzer abstracts the external sentiment collaborator so Producer
// can be tested without a model.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (update.Sentiment, error)
}

// #endregion analyzer-interface

// #region input

// ProduceInput bundles what the pipeline knows about one user message.
type ProduceInput struct {
	Message string
	Intent  intent.Intent
	// Sentiment, when set, skips the analyzer.
	Sentiment update.Sentiment
}

// #endregion input
