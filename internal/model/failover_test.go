package model

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"webloom/internal/domain"
)

// mockClient implements domain.ModelClient for testing.
type mockClient struct {
	name    string
	healthy bool
	genErr  error
	genText string
	calls   int
}

func (m *mockClient) Name() string { return m.name }

func (m *mockClient) Healthy(ctx context.Context) error {
	if !m.healthy {
		return errors.New("unhealthy")
	}
	return nil
}

func (m *mockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.genText, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFailover_UsesFirstClient(t *testing.T) {
	c1 := &mockClient{name: "primary", healthy: true, genText: "from-primary"}
	c2 := &mockClient{name: "secondary", healthy: true, genText: "from-secondary"}
	f := NewFailover([]domain.ModelClient{c1, c2}, testLogger())

	text, err := f.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from-primary" {
		t.Fatalf("expected 'from-primary', got %q", text)
	}
	if c2.calls != 0 {
		t.Fatal("secondary should not be called when primary succeeds")
	}
}

func TestFailover_FallsBackOnError(t *testing.T) {
	c1 := &mockClient{name: "primary", healthy: true, genErr: errors.New("api error")}
	c2 := &mockClient{name: "secondary", healthy: true, genText: "from-secondary"}
	f := NewFailover([]domain.ModelClient{c1, c2}, testLogger())

	text, err := f.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from-secondary" {
		t.Fatalf("expected 'from-secondary', got %q", text)
	}
}

func TestFailover_AllClientsFail(t *testing.T) {
	c1 := &mockClient{name: "c1", healthy: true, genErr: errors.New("fail 1")}
	c2 := &mockClient{name: "c2", healthy: true, genErr: errors.New("fail 2")}
	f := NewFailover([]domain.ModelClient{c1, c2}, testLogger())

	if _, err := f.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error when all clients fail")
	}
	if c1.calls != 1 || c2.calls != 1 {
		t.Fatalf("each client must be tried exactly once, got %d and %d", c1.calls, c2.calls)
	}
}

func TestFailover_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c1 := &mockClient{name: "c1", healthy: true, genErr: errors.New("slow call aborted")}
	c2 := &mockClient{name: "c2", healthy: true, genText: "never"}
	f := NewFailover([]domain.ModelClient{c1, c2}, testLogger())

	cancel()
	if _, err := f.Generate(ctx, "q"); err == nil {
		t.Fatal("expected error after cancellation")
	}
	if c2.calls != 0 {
		t.Fatal("no further clients should be tried after cancellation")
	}
}

func TestFailover_Healthy(t *testing.T) {
	sick := &mockClient{name: "sick", healthy: false}
	well := &mockClient{name: "well", healthy: true}

	f := NewFailover([]domain.ModelClient{sick, well}, testLogger())
	if err := f.Healthy(context.Background()); err != nil {
		t.Fatalf("expected healthy, got: %v", err)
	}

	f = NewFailover([]domain.ModelClient{sick}, testLogger())
	if err := f.Healthy(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}

func TestFailover_Name(t *testing.T) {
	c1 := &mockClient{name: "gemini"}
	c2 := &mockClient{name: "ollama"}
	f := NewFailover([]domain.ModelClient{c1, c2}, testLogger())

	if got := f.Name(); got != "failover(gemini→ollama)" {
		t.Fatalf("expected 'failover(gemini→ollama)', got %q", got)
	}
}
