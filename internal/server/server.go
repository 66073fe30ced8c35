// Package server exposes the WebLoom HTTP API: capture ingestion from the
// browser extension, account signup and login, and question answering.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"webloom/internal/answer"
	"webloom/internal/auth"
	"webloom/internal/config"
	"webloom/internal/domain"
	"webloom/internal/ingest"
	"webloom/internal/metrics"
)

const serverVersion = "1.0.0"

const maxBodySize = 10 << 20 // page captures can be large

// Server is the WebLoom HTTP API server.
type Server struct {
	cfg      config.ServerConfig
	metrics  config.MetricsConfig
	store    domain.DocumentStore
	auth     *auth.Engine
	pipeline *answer.Pipeline
	ingest   *ingest.Service
	registry *metrics.Registry
	logger   *slog.Logger

	httpServer *http.Server

	questionsTotal  *metrics.Counter
	scrapesTotal    *metrics.Counter
	requestsTotal   *metrics.Counter
	answerLatency   *metrics.Histogram
	fallbackAnswers *metrics.Counter
	documentsGauge  *metrics.Gauge
}

type Config struct {
	Server   config.ServerConfig
	Metrics  config.MetricsConfig
	Store    domain.DocumentStore
	Auth     *auth.Engine
	Pipeline *answer.Pipeline
	Ingest   *ingest.Service
	Registry *metrics.Registry
	Logger   *slog.Logger
}

func New(cfg Config) *Server {
	reg := cfg.Registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Server{
		cfg:      cfg.Server,
		metrics:  cfg.Metrics,
		store:    cfg.Store,
		auth:     cfg.Auth,
		pipeline: cfg.Pipeline,
		ingest:   cfg.Ingest,
		registry: reg,
		logger:   cfg.Logger,

		questionsTotal:  reg.Counter("webloom_questions_total", "Total questions answered."),
		scrapesTotal:    reg.Counter("webloom_scrapes_total", "Total page captures stored."),
		requestsTotal:   reg.Counter("webloom_http_requests_total", "Total HTTP requests served."),
		fallbackAnswers: reg.Counter("webloom_fallback_answers_total", "Answers produced without the AI model."),
		documentsGauge:  reg.Gauge("webloom_documents", "Documents in the store, as of the last write."),
		answerLatency: reg.Histogram("webloom_answer_seconds", "Question answering latency in seconds.",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}),
	}
}

// Handler builds the full route table with middleware applied. Split out
// from Start so tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("POST /api/scrape", s.requireAuth(s.handleScrape))
	mux.HandleFunc("GET /api/scrape", s.requireAuth(s.handleListScrapes))
	mux.HandleFunc("DELETE /api/scrape/{id}", s.requireAuth(s.handleDeleteScrape))

	mux.HandleFunc("POST /api/question", s.optionalAuth(s.handleQuestion))

	if s.metrics.Enabled {
		endpoint := s.metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.HandleFunc("GET "+endpoint, s.registry.Handler())
	}

	var handler http.Handler = mux
	handler = s.withCORS(handler)
	handler = s.withRequestLog(handler)
	handler = s.withRecovery(handler)
	return handler
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // question answering waits on the model
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("server started", "addr", addr, "ai_enabled", s.pipeline.RemoteAvailable())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeBody parses a JSON request body with the server's size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
