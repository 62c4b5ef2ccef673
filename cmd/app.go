package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/ai/anthropic"
	"github.com/spigell/careeros/internal/ai/gemini"
	"github.com/spigell/careeros/internal/ai/ollama"
	"github.com/spigell/careeros/internal/ai/openai"
	"github.com/spigell/careeros/internal/logger"
	"github.com/spigell/careeros/internal/metrics"
	"github.com/spigell/careeros/internal/roadmap"
	"github.com/spigell/careeros/internal/secrets"
	"github.com/spigell/careeros/internal/store"
)

// env is what every command builds before doing its work.
type env struct {
	config   *Config
	logger   *zap.Logger
	recorder *metrics.Recorder
}

func setup(registry prometheus.Registerer) *env {
	logger, err := logger.New(logger.Options{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Service: app,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	redacted := *config.AI
	if redacted.APIKey != "" {
		redacted.APIKey = "<redacted>"
	}
	shown := *config
	shown.AI = &redacted
	pretty, _ := json.MarshalIndent(shown, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return &env{
		config:   config,
		logger:   logger,
		recorder: metrics.NewRecorder(registry),
	}
}

func (e *env) openStore(ctx context.Context) *store.Store {
	s, err := store.Open(ctx, e.config.Store.Path)
	if err != nil {
		e.logger.Fatal("opening the store", zap.Error(err), zap.String("path", e.config.Store.Path))
	}
	return s
}

func (e *env) gateway(ctx context.Context) ai.Gateway {
	gw, err := newGateway(ctx, e.config.AI, e.recorder, e.logger)
	if err != nil {
		e.logger.Fatal("creating the model gateway", zap.Error(err),
			zap.String("hint", "check the ai section of the configuration file"),
		)
	}
	return gw
}

func (e *env) roadmapService(gw ai.Gateway) *roadmap.Service {
	svc, err := roadmap.NewService(gw, e.logger, roadmap.Options{
		MaxRevisions: e.config.Roadmap.MaxRevisions,
		MaxLogLength: e.config.AI.MaxLogLength,
		CacheSize:    e.config.Roadmap.CacheSize,
		Observer:     e.recorder,
	})
	if err != nil {
		e.logger.Fatal("creating the roadmap service", zap.Error(err))
	}
	return svc
}

type modelClient interface {
	ai.Gateway
	Model() string
}

// newGateway builds the configured provider and wraps it with metrics,
// rate limiting and the per-call timeout, outermost last.
func newGateway(ctx context.Context, cfg *AIConfig, recorder *metrics.Recorder, base *zap.Logger) (ai.Gateway, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	var (
		client modelClient
		err    error
	)

	switch provider {
	case "", "ollama":
		provider = "ollama"
		client, err = ollama.New(cfg.Ollama.Host, cfg.Model, cfg.Temperature)
	case "gemini":
		var key string
		key, err = apiKey(cfg, "gemini api key", "GEMINI_API_KEY")
		if err == nil {
			client, err = gemini.NewGenerator(ctx, key, cfg.Model, cfg.Temperature, logger.WithProvider(base, provider, cfg.Model))
		}
	case "openai":
		// Self-hosted OpenAI compatible servers often run without a key.
		key := secrets.Optional(apiKeySource(cfg, "openai api key", "OPENAI_API_KEY"))
		client, err = openai.New(key, cfg.OpenAI.BaseURL, cfg.Model, cfg.Temperature)
	case "anthropic":
		var key string
		key, err = apiKey(cfg, "anthropic api key", "ANTHROPIC_API_KEY")
		if err == nil {
			client, err = anthropic.New(key, cfg.Model, cfg.Temperature)
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.WithProvider(base, provider, client.Model()).Info("model gateway ready",
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
	)

	var gw ai.Gateway = client
	gw = metrics.Instrument(gw, recorder, provider, client.Model())
	gw = ai.WithRateLimit(gw, ai.NewLimiter(cfg.RequestsPerMinute))
	gw = ai.WithTimeout(gw, cfg.Timeout)

	return gw, nil
}

func apiKeySource(cfg *AIConfig, name, env string) secrets.Source {
	return secrets.Source{
		Name:  name,
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   env,
	}
}

func apiKey(cfg *AIConfig, name, env string) (string, error) {
	key, err := secrets.Load(apiKeySource(cfg, name, env))
	if err != nil {
		return "", fmt.Errorf("%w (set ai.api-key-file or CAREEROS_API_KEY_FILE)", err)
	}
	return key, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
