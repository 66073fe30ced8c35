// Package answer implements the question-answering pipeline: select
// grounding documents, compose a bounded model context with citations, and
// generate the final answer through the remote model or the templated
// fallback.
package answer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"webloom/internal/domain"
)

// Pipeline orchestrates retrieval, composition, and generation for one
// question. It is read-only with respect to the store and keeps no state
// across requests, so any number of questions may run concurrently.
type Pipeline struct {
	selector *Selector
	composer *Composer
	remote   *RemoteStrategy // nil when no model is configured
	logger   *slog.Logger
}

type PipelineConfig struct {
	Store  domain.DocumentStore
	Client domain.ModelClient // nil disables AI answering

	SearchLimit     int
	RecentLimit     int
	SnippetLength   int
	PreviewLength   int
	GenerateTimeout time.Duration

	Logger *slog.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		selector: NewSelector(SelectorConfig{
			Store:       cfg.Store,
			SearchLimit: cfg.SearchLimit,
			RecentLimit: cfg.RecentLimit,
			Logger:      cfg.Logger,
		}),
		composer: NewComposer(ComposerConfig{
			SnippetLength: cfg.SnippetLength,
			PreviewLength: cfg.PreviewLength,
		}),
		logger: cfg.Logger,
	}
	if cfg.Client != nil {
		p.remote = NewRemoteStrategy(RemoteStrategyConfig{
			Client:  cfg.Client,
			Timeout: cfg.GenerateTimeout,
			Logger:  cfg.Logger,
		})
	}
	return p
}

// RemoteAvailable reports whether a remote model is configured.
func (p *Pipeline) RemoteAvailable() bool { return p.remote != nil }

// ModelName names the configured model, or "" when answering runs in
// fallback-only mode.
func (p *Pipeline) ModelName() string {
	if p.remote == nil {
		return ""
	}
	return p.remote.ModelName()
}

// Answer runs the pipeline for one question. Recoverable conditions (no
// matches, remote model down) resolve to a valid AnswerResult; only an
// invalid question or a store failure returns an error.
func (p *Pipeline) Answer(ctx context.Context, question string, owner domain.OwnerFilter) (*domain.AnswerResult, error) {
	// Trimming is for validation only; retrieval and generation see the
	// question as asked.
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	candidates, err := p.selector.Select(ctx, question, owner)
	if err != nil {
		return nil, err
	}

	contextBlock, references := p.composer.Compose(candidates)

	result := &domain.AnswerResult{References: references}

	if len(candidates) == 0 {
		result.Text = FallbackText(0, false)
		result.Mode = domain.ModeFallbackEmpty
		return result, nil
	}

	if p.remote != nil {
		text, err := p.remote.Generate(ctx, question, contextBlock)
		if err == nil {
			result.Text = text
			result.Grounded = true
			result.Mode = domain.ModeAI
			return result, nil
		}
		p.logger.Error("remote generation failed, using fallback",
			"model", p.remote.ModelName(),
			"candidates", len(candidates),
			"err", err,
		)
		result.Text = FallbackText(len(candidates), false)
	} else {
		result.Text = FallbackText(len(candidates), true)
	}

	result.Mode = domain.ModeFallbackFound
	return result, nil
}
