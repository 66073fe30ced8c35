// Package ingest validates and stores captured page text, from the HTTP
// scrape endpoint, the local capture command, and YAML bulk import files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"webloom/internal/domain"
)

const (
	defaultMaxContentLength = 50000

	truncationMarker = "... [content truncated]"
)

var (
	ErrMissingURL     = errors.New("url is required")
	ErrInvalidURL     = errors.New("url must be a valid http or https address")
	ErrMissingContent = errors.New("content is required")
)

// Input is one page capture before normalization.
type Input struct {
	URL        string `json:"url" yaml:"url"`
	Title      string `json:"title" yaml:"title"`
	Content    string `json:"content" yaml:"content"`
	CapturedAt string `json:"timestamp" yaml:"timestamp"`
}

// Result reports what was stored for one capture.
type Result struct {
	ID            int64
	Title         string
	URL           string
	CapturedAt    string
	ContentLength int
	Truncated     bool
}

// Service normalizes captures and writes them to the store. It caps page
// text at maxContentLength characters, appending a visible marker so the
// cut is apparent when the text is read back.
type Service struct {
	store            domain.DocumentStore
	maxContentLength int
	logger           *slog.Logger
}

func NewService(store domain.DocumentStore, maxContentLength int, logger *slog.Logger) *Service {
	if maxContentLength <= 0 {
		maxContentLength = defaultMaxContentLength
	}
	return &Service{
		store:            store,
		maxContentLength: maxContentLength,
		logger:           logger,
	}
}

// Ingest validates, normalizes, and stores one capture for the given owner.
func (s *Service) Ingest(ctx context.Context, in Input, owner domain.OwnerFilter) (*Result, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, ErrMissingURL
	}
	if !validURL(in.URL) {
		return nil, ErrInvalidURL
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrMissingContent
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled"
	}

	capturedAt := strings.TrimSpace(in.CapturedAt)
	if capturedAt == "" {
		capturedAt = time.Now().UTC().Format(time.RFC3339)
	}

	content, truncated := capContent(in.Content, s.maxContentLength)

	doc := domain.Document{
		URL:        in.URL,
		Title:      title,
		Content:    content,
		CapturedAt: capturedAt,
	}
	if id, ok := owner.Owner(); ok {
		doc.OwnerID = &id
	}

	docID, err := s.store.Insert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("store capture: %w", err)
	}

	// Reported in characters, the same unit the cap is applied in.
	contentLength := utf8.RuneCountInString(content)

	s.logger.Info("capture stored",
		"id", docID,
		"url", in.URL,
		"title", title,
		"content_length", contentLength,
		"truncated", truncated,
	)

	return &Result{
		ID:            docID,
		Title:         title,
		URL:           in.URL,
		CapturedAt:    capturedAt,
		ContentLength: contentLength,
		Truncated:     truncated,
	}, nil
}

// ImportFile ingests every entry of a YAML bulk import file. Entries are
// processed in order; the first invalid entry aborts the import and reports
// its position.
func (s *Service) ImportFile(ctx context.Context, path string, owner domain.OwnerFilter) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	var entries []Input
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("import file contains no entries")
	}

	results := make([]Result, 0, len(entries))
	for i, entry := range entries {
		res, err := s.Ingest(ctx, entry, owner)
		if err != nil {
			return results, fmt.Errorf("entry %d (%s): %w", i+1, entry.URL, err)
		}
		results = append(results, *res)
	}

	s.logger.Info("bulk import finished", "path", path, "entries", len(results))
	return results, nil
}

// capContent cuts page text to at most limit characters, marking the cut.
func capContent(content string, limit int) (string, bool) {
	runes := []rune(content)
	if len(runes) <= limit {
		return content, false
	}
	return string(runes[:limit]) + truncationMarker, true
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
