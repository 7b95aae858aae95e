package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/npc-companion/internal/intent"
)

var (
	ErrNoEndpoint = errors.New("media: no endpoint configured for kind")
	ErrNoURL      = errors.New("media: response carried no url")
)

// Result is a generated media artifact.
type Result struct {
	Kind intent.MediaType `json:"kind"`
	URL  string           `json:"url"`
}

// Config holds one endpoint per media kind. Empty endpoints disable the kind.
type Config struct {
	ImageURL string
	VideoURL string
	AudioURL string
	APIKey   string
}

// Client calls the external media generation services.
type Client struct {
	endpoints map[intent.MediaType]string
	apiKey    string
	http      *http.Client
}

// NewClient builds a client. A nil httpClient gets a 90s timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{
		endpoints: map[intent.MediaType]string{
			intent.MediaPhoto: cfg.ImageURL,
			intent.MediaVideo: cfg.VideoURL,
			intent.MediaAudio: cfg.AudioURL,
		},
		apiKey: cfg.APIKey,
		http:   httpClient,
	}
}

// Enabled reports whether kind has an endpoint.
func (c *Client) Enabled(kind intent.MediaType) bool {
	return c != nil && c.endpoints[kind] != ""
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
}

// generateResponse covers the shapes returned by the hosted providers we use.
type generateResponse struct {
	URL      string          `json:"url"`
	AudioURL string          `json:"audio_url"`
	Output   json.RawMessage `json:"output"`
	Data     []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// #region generate
// Generate asks the kind's endpoint for an artifact and returns its URL.
func (c *Client) Generate(ctx context.Context, kind intent.MediaType, prompt string) (Result, error) {
	endpoint := c.endpoints[kind]
	if endpoint == "" {
		return Result{}, errors.Wrapf(ErrNoEndpoint, "%q", kind)
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt, Type: string(kind)})
	if err != nil {
		return Result{}, errors.Wrap(err, "marshal media request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, errors.Wrap(err, "build media request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s request", kind)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, errors.Wrap(err, "read media response")
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%s endpoint returned %d: %s", kind, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, errors.Wrap(err, "decode media response")
	}
	url := out.firstURL()
	if url == "" {
		return Result{}, ErrNoURL
	}
	return Result{Kind: kind, URL: url}, nil
}

func (r generateResponse) firstURL() string {
	if r.URL != "" {
		return r.URL
	}
	if len(r.Output) > 0 {
		var s string
		if json.Unmarshal(r.Output, &s) == nil && s != "" {
			return s
		}
		var list []string
		if json.Unmarshal(r.Output, &list) == nil && len(list) > 0 {
			return list[0]
		}
	}
	if len(r.Data) > 0 && r.Data[0].URL != "" {
		return r.Data[0].URL
	}
	return r.AudioURL
}

// #endregion generate
