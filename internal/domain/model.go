package domain

import "context"

// ModelClient is the remote language-model capability: text in, text out.
// Implementations are constructed once at startup and injected into the
// question pipeline; a nil client means no model is configured and the
// pipeline answers with its fallback strategy.
type ModelClient interface {
	// Generate sends the prompt and returns the model's text. It honors
	// ctx cancellation; a cancelled or failed call is reported as an
	// error, never retried here.
	Generate(ctx context.Context, prompt string) (string, error)

	Name() string

	// Healthy probes the remote endpoint. Used by status reporting only;
	// answering never gates on it.
	Healthy(ctx context.Context) error
}
