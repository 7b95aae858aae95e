package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	text string
	err  error
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) Complete(context.Context, Request) (string, error) {
	return s.text, s.err
}

func TestCompleteOrFallback(t *testing.T) {
	ctx := context.Background()

	text, fallback := CompleteOrFallback(ctx, stubProvider{text: "  ciao!  "}, Request{}, nil)
	assert.False(t, fallback)
	assert.Equal(t, "ciao!", text)

	text, fallback = CompleteOrFallback(ctx, stubProvider{err: errors.New("boom")}, Request{}, nil)
	assert.True(t, fallback)
	assert.Equal(t, FallbackReply, text)

	text, fallback = CompleteOrFallback(ctx, stubProvider{text: "   "}, Request{}, nil)
	assert.True(t, fallback)
	assert.Equal(t, FallbackReply, text)

	text, fallback = CompleteOrFallback(ctx, nil, Request{}, nil)
	assert.True(t, fallback)
	assert.Equal(t, FallbackReply, text)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"local", "openai"}, r.Names())

	_, err := r.Get("nope", Config{})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = r.Get("openai", Config{})
	require.Error(t, err, "missing api key must fail")

	p, err := r.Get("LOCAL", Config{Endpoint: "http://localhost:1/generate"})
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())

	r.Register("stub", func(Config) (Provider, error) { return stubProvider{text: "x"}, nil })
	p, err = r.Get("stub", Config{})
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())
}

func TestLocal_Complete(t *testing.T) {
	var got localRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"ciao caro"}`))
	}))
	defer srv.Close()

	p, err := NewLocal(Config{Endpoint: srv.URL, Model: "mistral"})
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), Request{
		Messages:  []Message{{Role: "user", Content: "ciao"}},
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "ciao caro", text)
	assert.Equal(t, "mistral", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "ciao", got.Messages[0].Content)
}

func TestLocal_ChatShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"eccomi"}}`))
	}))
	defer srv.Close()

	p, err := NewLocal(Config{Endpoint: srv.URL})
	require.NoError(t, err)
	text, err := p.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "eccomi", text)
}

func TestLocal_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/status", "/garbage", "/empty"} {
		p, err := NewLocal(Config{Endpoint: srv.URL + path})
		require.NoError(t, err)
		_, err = p.Complete(context.Background(), Request{})
		assert.Error(t, err, path)
	}

	_, err := NewLocal(Config{})
	assert.Error(t, err)
}

func TestOpenAI_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Ciao! Come stai?"}}]
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/"}, option.WithMaxRetries(0))
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: "system", Content: "Sei Luna."},
			{Role: "user", Content: "ciao"},
		},
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ciao! Come stai?", text)
	assert.Equal(t, DefaultOpenAIModel, body["model"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL + "/v1/"}, option.WithMaxRetries(0))
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
}
