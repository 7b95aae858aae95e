package signals

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/llm"
	"github.com/danielpatrickdp/npc-companion/internal/update"
)

// #region mock

// mockAnalyzer returns a fixed sentiment or error.
type mockAnalyzer struct {
	sentiment update.Sentiment
	err       error
	calls     int
}

func (m *mockAnalyzer) Analyze(_ context.Context, _ string) (update.Sentiment, error) {
	m.calls++
	return m.sentiment, m.err
}

// mockProvider answers every completion with reply or err.
type mockProvider struct {
	reply string
	err   error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, _ llm.Request) (string, error) {
	return m.reply, m.err
}

// #endregion mock

// #region produce-tests

func TestProduce_IntentTags(t *testing.T) {
	p := NewProducer(nil)
	tests := []struct {
		name string
		in   intent.Intent
		want []string
	}{
		{"none", intent.Intent{}, []string{}},
		{"flirty", intent.Intent{Tone: intent.Tone{Flirty: true}}, []string{update.IntentIntimacy}},
		{"angry", intent.Intent{Tone: intent.Tone{Angry: true}}, []string{update.IntentAggression}},
		{"all", intent.Intent{Tone: intent.Tone{Flirty: true, Angry: true, Emotional: true}},
			[]string{update.IntentIntimacy, update.IntentAggression, update.IntentVulnerability}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Produce(context.Background(), ProduceInput{Intent: tt.in})
			if !reflect.DeepEqual(got.Intents, tt.want) {
				t.Errorf("got %v, want %v", got.Intents, tt.want)
			}
		})
	}
}

func TestProduce_SentimentFromAnalyzer(t *testing.T) {
	a := &mockAnalyzer{sentiment: update.SentimentPositive}
	p := NewProducer(a)
	got := p.Produce(context.Background(), ProduceInput{Message: "che bello"})
	if got.Sentiment != update.SentimentPositive {
		t.Errorf("expected positive, got %q", got.Sentiment)
	}
	if a.calls != 1 {
		t.Errorf("expected one analyzer call, got %d", a.calls)
	}
}

func TestProduce_SuppliedSentimentSkipsAnalyzer(t *testing.T) {
	a := &mockAnalyzer{sentiment: update.SentimentPositive}
	p := NewProducer(a)
	got := p.Produce(context.Background(), ProduceInput{Message: "x", Sentiment: update.SentimentNegative})
	if got.Sentiment != update.SentimentNegative {
		t.Errorf("expected supplied sentiment, got %q", got.Sentiment)
	}
	if a.calls != 0 {
		t.Error("analyzer should not be called")
	}
}

func TestProduce_DegradesToNeutral(t *testing.T) {
	p := NewProducer(&mockAnalyzer{err: errors.New("down")})
	if got := p.Produce(context.Background(), ProduceInput{Message: "hi"}); got.Sentiment != update.SentimentNeutral {
		t.Errorf("expected neutral on analyzer error, got %q", got.Sentiment)
	}
	p = NewProducer(nil)
	if got := p.Produce(context.Background(), ProduceInput{Message: "hi"}); got.Sentiment != update.SentimentNeutral {
		t.Errorf("expected neutral with nil analyzer, got %q", got.Sentiment)
	}
}

// #endregion produce-tests

// #region lexicon-tests

func TestLexicon(t *testing.T) {
	l := NewLexicon()
	tests := []struct {
		text string
		want update.Sentiment
	}{
		{"grazie, sei fantastica!", update.SentimentPositive},
		{"oggi sono triste e stanco", update.SentimentNegative},
		{"non sono felice", update.SentimentNegative},
		{"not bad at all", update.SentimentPositive},
		{"ho mangiato la pasta", update.SentimentNeutral},
		{"", update.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := l.Analyze(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// #endregion lexicon-tests

// #region llm-analyzer-tests

func TestLLMAnalyzer(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		text     string
		want     update.Sentiment
	}{
		{"label", &mockProvider{reply: "Negative."}, "ciao", update.SentimentNegative},
		{"error-falls-back", &mockProvider{err: errors.New("timeout")}, "grazie mille", update.SentimentPositive},
		{"garbage-falls-back", &mockProvider{reply: "I think it is upbeat"}, "che schifo", update.SentimentNegative},
		{"nil-provider", nil, "felice", update.SentimentPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLLMAnalyzer(tt.provider)
			got, err := a.Analyze(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// #endregion llm-analyzer-tests
