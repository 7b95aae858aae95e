package signals

import (
	"context"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region producer

// Producer turns a classified message into relationship signals.
type Producer struct {
	analyzer SentimentAnalyzer
}

// NewProducer creates a Producer. analyzer may be nil (sentiment degrades to neutral).
func NewProducer(analyzer SentimentAnalyzer) *Producer {
	return &Producer{analyzer: analyzer}
}

// #endregion producer

// #region produce

// Produce computes the sentiment and intent tags for one message.
func (p *Producer) Produce(ctx context.Context, input ProduceInput) update.Signals {
	return update.Signals{
		Sentiment: p.sentiment(ctx, input),
		Intents:   intentTags(input.Intent),
	}
}

// #endregion produce

// #region sentiment

// sentiment prefers a caller-supplied value, then the analyzer.
// Degrades to neutral on error or nil analyzer.
func (p *Producer) sentiment(ctx context.Context, input ProduceInput) update.Sentiment {
	if input.Sentiment != "" {
		return input.Sentiment
	}
	if p.analyzer == nil || input.Message == "" {
		return update.SentimentNeutral
	}
	s, err := p.analyzer.Analyze(ctx, input.Message)
	if err != nil || s == "" {
		return update.SentimentNeutral
	}
	return s
}

// #endregion sentiment

// #region intents

// intentTags maps tone flags onto the tags the relationship engine reads.
func intentTags(in intent.Intent) []string {
	tags := []string{}
	if in.Tone.Flirty {
		tags = append(tags, update.IntentIntimacy)
	}
	if in.Tone.Angry {
		tags = append(tags, update.IntentAggression)
	}
	if in.Tone.Emotional {
		tags = append(tags, update.IntentVulnerability)
	}
	return tags
}

// #endregion intents
