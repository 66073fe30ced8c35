package model

import (
	"fmt"
	"log/slog"
	"net/http"

	"webloom/internal/config"
	"webloom/internal/domain"
)

// Factory creates model clients from config. Clients share one pooled HTTP
// client.
type Factory struct {
	cfg    *config.Config
	client *http.Client
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		client: SharedHTTPClient(0),
		logger: logger,
	}
}

// Get builds the named model client. A model is usable only when it is
// enabled and carries the credentials its API needs.
func (f *Factory) Get(name string) (domain.ModelClient, error) {
	mc, ok := f.cfg.Models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	if !mc.Enabled {
		return nil, fmt.Errorf("model %s is disabled", name)
	}

	switch name {
	case "gemini":
		if mc.APIKey == "" {
			return nil, fmt.Errorf("model gemini: apiKey is not configured")
		}
		return NewGemini(GeminiConfig{
			APIKey:  mc.APIKey,
			APIBase: mc.APIBase,
			Model:   mc.Model,
			Client:  f.client,
			Logger:  f.logger,
		}), nil
	case "ollama":
		return NewOllama(OllamaConfig{
			APIBase: mc.APIBase,
			Model:   mc.Model,
			Client:  f.client,
			Logger:  f.logger,
		}), nil
	default:
		// Unknown names are treated as OpenAI-compatible endpoints.
		if mc.APIKey == "" {
			return nil, fmt.Errorf("model %s: apiKey is not configured", name)
		}
		return NewOpenAI(OpenAIConfig{
			APIKey:  mc.APIKey,
			APIBase: mc.APIBase,
			Model:   mc.Model,
			Client:  f.client,
			Logger:  f.logger,
		}), nil
	}
}

// Build assembles the answering client from the configured failover chain,
// or the default model when no chain is set. It returns nil when no usable
// model exists; the question pipeline then answers with its fallback
// strategy.
func (f *Factory) Build() domain.ModelClient {
	names := f.cfg.General.FailoverChain
	if len(names) == 0 && f.cfg.General.DefaultModel != "" {
		names = []string{f.cfg.General.DefaultModel}
	}

	var clients []domain.ModelClient
	for _, name := range names {
		c, err := f.Get(name)
		if err != nil {
			f.logger.Warn("model unavailable", "model", name, "err", err)
			continue
		}
		clients = append(clients, c)
	}

	switch len(clients) {
	case 0:
		f.logger.Warn("no model configured, answers will use the fallback template")
		return nil
	case 1:
		return clients[0]
	default:
		return NewFailover(clients, f.logger)
	}
}
