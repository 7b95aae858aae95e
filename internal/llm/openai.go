package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/pkg/errors"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds the provider. BaseURL is optional.
func NewOpenAI(cfg Config, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	all := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		all = append(all, option.WithBaseURL(cfg.BaseURL))
	}
	all = append(all, opts...)
	client := openai.NewClient(all...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: &client, model: model}, nil
}

func (o *OpenAI) Name() string { return "openai" }

// Complete sends the conversation and returns choices[0].message.content.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(req.Messages),
		Model:    model,
	}
	if req.Temperature > 0 {
		params.Temperature = param.Opt[float64]{Value: req.Temperature}
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = param.Opt[int64]{Value: int64(req.MaxTokens)}
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "openai completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no completion choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
