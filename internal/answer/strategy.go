package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"webloom/internal/domain"
)

const defaultGenerateTimeout = 30 * time.Second

// RemoteStrategy produces the answer through the remote model. It applies a
// per-call deadline so a stalled remote call is cancelled and reported as a
// GenerationError instead of hanging the request. It never retries.
type RemoteStrategy struct {
	client  domain.ModelClient
	timeout time.Duration
	logger  *slog.Logger
}

type RemoteStrategyConfig struct {
	Client  domain.ModelClient
	Timeout time.Duration // per-call bound (default: 30s)
	Logger  *slog.Logger
}

func NewRemoteStrategy(cfg RemoteStrategyConfig) *RemoteStrategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerateTimeout
	}
	return &RemoteStrategy{
		client:  cfg.Client,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// ModelName reports which model backs this strategy.
func (s *RemoteStrategy) ModelName() string { return s.client.Name() }

func (s *RemoteStrategy) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Generate(callCtx, buildPrompt(question, contextBlock))
	if err != nil {
		return "", &GenerationError{Cause: err}
	}
	return text, nil
}

// Fallback texts. foundNote is appended only when no model is configured at
// all; a transient remote failure gets the bare count template since telling
// the user to configure AI would be wrong advice.
const (
	noContentMessage = "No content found in the database. Please scrape some content first using the Chrome extension."

	notConfiguredNote = "Note: AI features are not enabled. Configure a model API key to get AI-powered answers."
)

// FallbackText is the non-AI answer used when the remote model is
// unavailable or failed. unconfigured distinguishes "never set up" from
// "failed just now".
func FallbackText(candidateCount int, unconfigured bool) string {
	if candidateCount == 0 {
		return noContentMessage
	}
	text := fmt.Sprintf("Found %d content item(s). See the reference links below for more details.", candidateCount)
	if unconfigured {
		text += "\n\n" + notConfiguredNote
	}
	return text
}
