package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "LLM_PROVIDER", "AUDIO_PROBABILITY", "HISTORY_LIMIT", "CORS_ORIGINS", "NATS_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 0.6, cfg.AudioProbability)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.NatsURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/npc?sslmode=disable")
	t.Setenv("LLM_PROVIDER", "local")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("AUDIO_PROBABILITY", "0.25")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "local", cfg.LLMProvider)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 0.25, cfg.AudioProbability)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LLM_MAX_TOKENS", "lots"},
		{"AUDIO_PROBABILITY", "1.5"},
		{"DB_DRIVER", "mysql"},
		{"HISTORY_LIMIT", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
