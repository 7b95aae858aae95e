package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration, read from the environment and an
// optional .env file.
type Config struct {
	Port string

	DBDriver string // "sqlite" | "postgres"
	DBDSN    string

	LLMProvider   string // "openai" | "local" | "codec"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalLLMURL   string
	LocalLLMModel string
	CodecAddr     string
	Temperature   float64
	MaxTokens     int

	MediaImageURL string
	MediaVideoURL string
	MediaAudioURL string
	MediaAPIKey   string

	NatsURL string

	LogLevel         string
	AudioProbability float64
	HistoryLimit     int
	CORSOrigins      []string
	SentimentMode    string // "lexicon" | "llm"
}

// Load reads .env (if present) and the environment. Only malformed numeric
// values are errors; everything else falls back to a default.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          envOr("PORT", "8080"),
		DBDriver:      strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBDSN:         envOr("DB_DSN", "npc_companion.db"),
		LLMProvider:   strings.ToLower(envOr("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		LocalLLMURL:   envOr("LOCAL_LLM_URL", "http://localhost:11434/api/chat"),
		LocalLLMModel: envOr("LOCAL_LLM_MODEL", "llama3"),
		CodecAddr:     envOr("CODEC_ADDR", "localhost:50051"),
		MediaImageURL: os.Getenv("MEDIA_IMAGE_URL"),
		MediaVideoURL: os.Getenv("MEDIA_VIDEO_URL"),
		MediaAudioURL: os.Getenv("MEDIA_AUDIO_URL"),
		MediaAPIKey:   os.Getenv("MEDIA_API_KEY"),
		NatsURL:       os.Getenv("NATS_URL"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		SentimentMode: strings.ToLower(envOr("SENTIMENT_MODE", "lexicon")),
		CORSOrigins:   splitList(envOr("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.Temperature, err = envFloat("LLM_TEMPERATURE", 0.9); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = envInt("LLM_MAX_TOKENS", 400); err != nil {
		return nil, err
	}
	if cfg.AudioProbability, err = envFloat("AUDIO_PROBABILITY", 0.6); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = envInt("HISTORY_LIMIT", 20); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}
	if c.AudioProbability < 0 || c.AudioProbability > 1 {
		return fmt.Errorf("AUDIO_PROBABILITY: %v outside [0, 1]", c.AudioProbability)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT: must not be negative")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
