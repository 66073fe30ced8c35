package answer

import (
	"fmt"
	"strings"

	"webloom/internal/domain"
)

const (
	defaultSnippetLength = 200
	defaultPreviewLength = 1000

	// emptyContextBlock is what the model sees when no grounding material
	// exists at all.
	emptyContextBlock = "No relevant content found."
)

// Composer turns selected candidates into the bounded context block handed
// to the model and the citation list returned to the user. The citation
// snippet and the context preview are two independent truncations: the
// snippet is a short teaser for the reference list, the preview gives the
// model substantially more to work with.
type Composer struct {
	snippetLength int
	previewLength int
}

type ComposerConfig struct {
	SnippetLength int // citation snippet, characters (default: 200)
	PreviewLength int // per-document context preview, characters (default: 1000)
}

func NewComposer(cfg ComposerConfig) *Composer {
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = defaultSnippetLength
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = defaultPreviewLength
	}
	return &Composer{
		snippetLength: cfg.SnippetLength,
		previewLength: cfg.PreviewLength,
	}
}

// Compose builds the labelled context block and the citation list,
// preserving candidate order throughout.
func (c *Composer) Compose(candidates []domain.Candidate) (string, []domain.Citation) {
	if len(candidates) == 0 {
		return emptyContextBlock, nil
	}

	var sb strings.Builder
	references := make([]domain.Citation, 0, len(candidates))

	for i, cand := range candidates {
		doc := cand.Document
		snippet := truncate(doc.Content, c.snippetLength)

		references = append(references, domain.Citation{
			ID:         doc.ID,
			URL:        doc.URL,
			Title:      doc.Title,
			Snippet:    snippet,
			CapturedAt: doc.CapturedAt,
		})

		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source %d]\nTitle: %s\nURL: %s\nContent: %s",
			i+1, doc.Title, doc.URL, truncate(doc.Content, c.previewLength))
	}

	return sb.String(), references
}

// truncate cuts s to at most n characters, appending an ellipsis marker when
// anything was cut. Counts are runes so multi-byte text is not split.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
