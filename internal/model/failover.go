package model

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"webloom/internal/domain"
)

// Failover tries multiple model clients in order, falling back to the next
// one when the current fails. Each client is called at most once per
// Generate; recovery beyond the chain is the answer pipeline's fallback
// strategy, never a retry.
type Failover struct {
	clients []domain.ModelClient
	logger  *slog.Logger
}

// NewFailover creates a failover chain from the given clients.
// At least one client is required.
func NewFailover(clients []domain.ModelClient, logger *slog.Logger) *Failover {
	return &Failover{clients: clients, logger: logger}
}

func (f *Failover) Name() string {
	names := make([]string, len(f.clients))
	for i, c := range f.clients {
		names[i] = c.Name()
	}
	return "failover(" + strings.Join(names, "→") + ")"
}

func (f *Failover) Healthy(ctx context.Context) error {
	for _, c := range f.clients {
		if err := c.Healthy(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no healthy model in failover chain")
}

// Generate tries each client in order and returns the first successful text.
func (f *Failover) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, c := range f.clients {
		text, err := c.Generate(ctx, prompt)
		if err == nil {
			if i > 0 {
				f.logger.Info("failover: used fallback model",
					"model", c.Name(),
					"attempt", i+1,
				)
			}
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			// The request deadline is gone; trying further clients would
			// only accumulate the same error.
			return "", ctx.Err()
		}
		f.logger.Warn("failover: model failed, trying next",
			"model", c.Name(),
			"attempt", i+1,
			"error", err,
		)
	}
	return "", fmt.Errorf("all models in failover chain failed: %w", lastErr)
}
