package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"

	"github.com/danielpatrickdp/npc-companion/internal/affinity"
	"github.com/danielpatrickdp/npc-companion/internal/api"
	"github.com/danielpatrickdp/npc-companion/internal/chat"
	"github.com/danielpatrickdp/npc-companion/internal/codec"
	"github.com/danielpatrickdp/npc-companion/internal/config"
	"github.com/danielpatrickdp/npc-companion/internal/events"
	"github.com/danielpatrickdp/npc-companion/internal/gate"
	"github.com/danielpatrickdp/npc-companion/internal/intent"
	"github.com/danielpatrickdp/npc-companion/internal/llm"
	"github.com/danielpatrickdp/npc-companion/internal/logging"
	"github.com/danielpatrickdp/npc-companion/internal/media"
	"github.com/danielpatrickdp/npc-companion/internal/orchestrator"
	"github.com/danielpatrickdp/npc-companion/internal/signals"
	"github.com/danielpatrickdp/npc-companion/internal/store"
)

const shutdownTimeout = 10 * time.Second

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	base := logging.New(cfg.LogLevel, os.Stdout)
	loggers := logging.NewFactory(base)
	logger := loggers.ForComponent("server")

	st, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("failed to open store", "driver", cfg.DBDriver, "error", err)
	}
	defer st.Close()

	provider, err := newProvider(cfg)
	if err != nil {
		logger.Fatal("failed to build llm provider", "provider", cfg.LLMProvider, "error", err)
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	var analyzer signals.SentimentAnalyzer = signals.NewLexicon()
	if cfg.SentimentMode == "llm" {
		analyzer = signals.NewLLMAnalyzer(provider)
	}

	classifierCfg := intent.DefaultClassifierConfig()
	classifierCfg.AudioProbability = cfg.AudioProbability
	orch := orchestrator.NewOrchestrator(orchestrator.Options{
		Classifier: intent.NewClassifier(nil, classifierCfg),
		Producer:   signals.NewProducer(analyzer),
		Gate:       gate.NewGate(gate.DefaultGateConfig()),
		Logger:     loggers.ForComponent("orchestrator"),
	})

	publisher, err := events.New(cfg.NatsURL)
	if err != nil {
		logger.Fatal("failed to connect to nats", "url", cfg.NatsURL, "error", err)
	}
	defer publisher.Close()

	mediaClient := media.NewClient(media.Config{
		ImageURL: cfg.MediaImageURL,
		VideoURL: cfg.MediaVideoURL,
		AudioURL: cfg.MediaAudioURL,
		APIKey:   cfg.MediaAPIKey,
	}, nil)

	svc := chat.NewService(chat.Deps{
		Repo:         st,
		Provider:     provider,
		Orchestrator: orch,
		Media:        mediaClient,
		Events:       publisher,
		Interactions: logging.NewProvenanceLog(st.DB()),
		Logger:       loggers.ForComponent("chat"),
	}, chat.Config{
		HistoryLimit: cfg.HistoryLimit,
		Model:        modelFor(cfg),
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	})

	handler := api.NewHandler(svc, st, affinity.NewTracker(), loggers.ForComponent("api"))
	handler.AllowOrigins(cfg.CORSOrigins)
	engine := api.NewRouter(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors.New(corsOptions(cfg.CORSOrigins)).Handler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("npc companion listening",
			"port", cfg.Port,
			"db", cfg.DBDriver,
			"llm", provider.Name(),
			"sentiment", cfg.SentimentMode,
			"nats", cfg.NatsURL != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// #endregion main

// #region cors

// corsOptions covers every method the v1 router serves.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "X-Request-ID"},
	}
}

// #endregion cors

// #region providers

// newProvider builds the configured completion backend. The codec backend is
// registered here because it dials a gRPC server.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	registry := llm.NewRegistry()
	registry.Register("codec", func(c llm.Config) (llm.Provider, error) {
		p, err := codec.NewCodecClient(c.Endpoint, c.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	switch cfg.LLMProvider {
	case "local":
		return registry.Get("local", llm.Config{Endpoint: cfg.LocalLLMURL, Model: cfg.LocalLLMModel})
	case "codec":
		return registry.Get("codec", llm.Config{Endpoint: cfg.CodecAddr, Model: cfg.LocalLLMModel})
	default:
		return registry.Get(cfg.LLMProvider, llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	}
}

func modelFor(cfg *config.Config) string {
	switch cfg.LLMProvider {
	case "local", "codec":
		return cfg.LocalLLMModel
	default:
		return cfg.OpenAIModel
	}
}

// #endregion providers
