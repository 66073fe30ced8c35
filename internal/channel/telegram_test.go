package channel

import (
	"strings"
	"testing"

	"webloom/internal/domain"
)

func TestFormatAnswerWithReferences(t *testing.T) {
	result := &domain.AnswerResult{
		Text: "Goroutines are lightweight threads.",
		References: []domain.Citation{
			{ID: 1, URL: "https://example.com/go", Title: "Go docs", Snippet: "..."},
			{ID: 2, URL: "https://example.com/blog", Title: "Blog", Snippet: "..."},
		},
		Grounded: true,
		Mode:     domain.ModeAI,
	}

	out := formatAnswer(result)
	if !strings.HasPrefix(out, "Goroutines are lightweight threads.") {
		t.Errorf("answer text missing: %q", out)
	}
	if !strings.Contains(out, "References:") {
		t.Error("reference header missing")
	}
	if !strings.Contains(out, "1. Go docs\nhttps://example.com/go") {
		t.Errorf("first reference malformed:\n%s", out)
	}
	if !strings.Contains(out, "2. Blog") {
		t.Error("second reference missing")
	}
}

func TestFormatAnswerNoReferences(t *testing.T) {
	result := &domain.AnswerResult{
		Text: "No content found in the database.",
		Mode: domain.ModeFallbackEmpty,
	}
	out := formatAnswer(result)
	if strings.Contains(out, "References:") {
		t.Errorf("unexpected reference section: %q", out)
	}
}

func TestIsAllowed(t *testing.T) {
	open := NewTelegram(TelegramOptions{})
	if !open.isAllowed(12345) {
		t.Error("empty allow list must allow everyone")
	}

	restricted := NewTelegram(TelegramOptions{AllowFrom: []string{"100", " 200 ", "bogus"}})
	if !restricted.isAllowed(100) || !restricted.isAllowed(200) {
		t.Error("listed users must be allowed")
	}
	if restricted.isAllowed(300) {
		t.Error("unlisted user must be rejected")
	}
}
