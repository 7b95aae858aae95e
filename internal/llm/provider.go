package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// FallbackReply is what the user sees when no provider could answer.
const FallbackReply = "Scusami, ho avuto un momento di confusione... puoi ripetere?"

var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrEmptyResponse   = errors.New("llm returned an empty response")
)

// #region request

// Message is one chat turn sent to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request. Zero Temperature and
// MaxTokens mean "provider default".
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// #endregion request

// #region provider

// Provider resolves a completion request to the reply text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Config carries the settings a provider factory may need.
type Config struct {
	APIKey   string
	BaseURL  string
	Endpoint string
	Model    string
}

// Factory builds a provider from config.
type Factory func(cfg Config) (Provider, error)

// #endregion provider

// #region registry

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in openai and local providers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("openai", func(cfg Config) (Provider, error) {
		p, err := NewOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	r.Register("local", func(cfg Config) (Provider, error) {
		p, err := NewLocal(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Get builds the named provider.
func (r *Registry) Get(name string, cfg Config) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return f(cfg)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// #endregion registry

// #region fallback

// CompleteOrFallback never fails: any provider error or empty reply is
// logged and replaced with FallbackReply. The bool reports whether the
// fallback was used.
func CompleteOrFallback(ctx context.Context, p Provider, req Request, logger *log.Logger) (string, bool) {
	if p == nil {
		return FallbackReply, true
	}
	text, err := p.Complete(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		if logger != nil {
			logger.Warn("completion failed, using fallback", "provider", p.Name(), "error", err)
		}
		return FallbackReply, true
	}
	return strings.TrimSpace(text), false
}

// #endregion fallback
