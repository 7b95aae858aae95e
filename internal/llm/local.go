package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Local calls a self-hosted model server that answers {"response": "..."}.
type Local struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewLocal builds the provider. Endpoint is the full URL to POST to.
func NewLocal(cfg Config) (*Local, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = cfg.BaseURL
	}
	if endpoint == "" {
		return nil, errors.New("local: endpoint is required")
	}
	return &Local{
		endpoint: endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (l *Local) Name() string { return "local" }

type localRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type localResponse struct {
	Response string `json:"response"`
	// Some servers answer in chat shape instead.
	Message *Message `json:"message,omitempty"`
}

// Complete posts the request and returns the response field.
func (l *Local) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = l.model
	}
	body, err := json.Marshal(localRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal local request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build local request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "local completion")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "read local response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local completion: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out localResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, "decode local response")
	}
	if out.Response != "" {
		return out.Response, nil
	}
	if out.Message != nil && out.Message.Content != "" {
		return out.Message.Content, nil
	}
	return "", ErrEmptyResponse
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
