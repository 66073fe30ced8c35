package answer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"webloom/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockStore implements domain.DocumentStore in memory and records calls so
// tests can assert that validation short-circuits before any store access.
type mockStore struct {
	docs          []domain.Document
	searchErr     error
	searchCalls   int
	searchQueries []string
	recentCalls   int
}

func (m *mockStore) matches(doc domain.Document, owner domain.OwnerFilter) bool {
	if owner.All() {
		return true
	}
	if owner.Unowned() {
		return doc.OwnerID == nil
	}
	id, ok := owner.Owner()
	return ok && doc.OwnerID != nil && *doc.OwnerID == id
}

// byRecency returns the owner's docs ordered by StoredAt descending.
func (m *mockStore) byRecency(owner domain.OwnerFilter) []domain.Document {
	var out []domain.Document
	for _, d := range m.docs {
		if m.matches(d, owner) {
			out = append(out, d)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StoredAt.After(out[i].StoredAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (m *mockStore) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	m.docs = append(m.docs, doc)
	return doc.ID, nil
}

func (m *mockStore) GetByID(ctx context.Context, id int64, owner domain.OwnerFilter) (*domain.Document, error) {
	for _, d := range m.docs {
		if d.ID == id && m.matches(d, owner) {
			return &d, nil
		}
	}
	return nil, nil
}

func (m *mockStore) SearchContent(ctx context.Context, query string, owner domain.OwnerFilter, limit int) ([]domain.Document, error) {
	m.searchCalls++
	m.searchQueries = append(m.searchQueries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	q := strings.ToLower(query)
	var out []domain.Document
	for _, d := range m.byRecency(owner) {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Content), q) {
			out = append(out, d)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockStore) ListRecent(ctx context.Context, owner domain.OwnerFilter, limit, offset int) ([]domain.Document, error) {
	m.recentCalls++
	docs := m.byRecency(owner)
	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *mockStore) Count(ctx context.Context, owner domain.OwnerFilter) (int64, error) {
	return int64(len(m.byRecency(owner))), nil
}

func (m *mockStore) Delete(ctx context.Context, id int64, owner domain.OwnerFilter) (bool, error) {
	for i, d := range m.docs {
		if d.ID == id && m.matches(d, owner) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) Close() error { return nil }

// mockModel implements domain.ModelClient.
type mockModel struct {
	text    string
	err     error
	prompts []string
}

func (m *mockModel) Name() string                      { return "mock" }
func (m *mockModel) Healthy(ctx context.Context) error { return nil }
func (m *mockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return m.text, nil
}

// slowModel blocks until its context is cancelled.
type slowModel struct{}

func (s *slowModel) Name() string                      { return "slow" }
func (s *slowModel) Healthy(ctx context.Context) error { return nil }
func (s *slowModel) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Second):
		return "", errors.New("test took too long")
	}
}

func ownerPtr(id int64) *int64 { return &id }

func docAt(id int64, owner *int64, title, content string, storedAt time.Time) domain.Document {
	return domain.Document{
		ID:         id,
		OwnerID:    owner,
		URL:        "https://example.com/" + title,
		Title:      title,
		Content:    content,
		CapturedAt: "2025-01-01T00:00:00Z",
		StoredAt:   storedAt,
	}
}
