package answer

import (
	"context"
	"fmt"
	"log/slog"

	"webloom/internal/domain"
)

const (
	defaultSearchLimit = 10
	defaultRecentLimit = 5
)

// Selector picks the documents that ground an answer. Matching is a
// case-insensitive substring test against title and content with no further
// scoring; when nothing matches, the owner's most recent documents are used
// so the model always gets some material when any exists.
type Selector struct {
	store       domain.DocumentStore
	searchLimit int
	recentLimit int
	logger      *slog.Logger
}

type SelectorConfig struct {
	Store       domain.DocumentStore
	SearchLimit int // substring-match cap (default: 10)
	RecentLimit int // recency-fallback cap (default: 5)
	Logger      *slog.Logger
}

func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &Selector{
		store:       cfg.Store,
		searchLimit: cfg.SearchLimit,
		recentLimit: cfg.RecentLimit,
		logger:      cfg.Logger,
	}
}

// Select returns candidates most-recent-first. An empty result means the
// owner has no documents at all; it is a valid outcome, not an error.
func (s *Selector) Select(ctx context.Context, question string, owner domain.OwnerFilter) ([]domain.Candidate, error) {
	docs, err := s.store.SearchContent(ctx, question, owner, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}

	if len(docs) == 0 {
		// No substring match — ground on recent documents instead.
		docs, err = s.store.ListRecent(ctx, owner, s.recentLimit, 0)
		if err != nil {
			return nil, fmt.Errorf("list recent content: %w", err)
		}
		if len(docs) > 0 {
			s.logger.Debug("no search match, grounding on recent documents", "count", len(docs))
		}
	}

	candidates := make([]domain.Candidate, 0, len(docs))
	for i, doc := range docs {
		candidates = append(candidates, domain.Candidate{
			Document: doc,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}
