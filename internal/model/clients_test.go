package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGemini_Generate(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Errorf("unexpected request shape: %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "the answer"}}}},
			},
		})
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k123", APIBase: srv.URL, Model: "gemini-2.5-flash", Logger: testLogger()})

	text, err := g.Generate(context.Background(), "what is up")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "the answer" {
		t.Fatalf("expected 'the answer', got %q", text)
	}
	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "k123" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
}

func TestGemini_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := g.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestGemini_Generate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := g.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error on empty candidates")
	}
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k456" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hi there"}},
			},
		})
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "k456", APIBase: srv.URL, Logger: testLogger()})
	text, err := o.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hi there" {
		t.Fatalf("expected 'hi there', got %q", text)
	}
}

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("expected stream=false")
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "local answer", "done": true})
	}))
	defer srv.Close()

	o := NewOllama(OllamaConfig{APIBase: srv.URL, Logger: testLogger()})
	text, err := o.Generate(context.Background(), "q")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "local answer" {
		t.Fatalf("expected 'local answer', got %q", text)
	}
}

func TestOllama_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o := NewOllama(OllamaConfig{APIBase: srv.URL, Logger: testLogger()})
	if err := o.Healthy(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
}
