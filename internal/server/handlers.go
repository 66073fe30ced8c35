package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"webloom/internal/answer"
	"webloom/internal/auth"
	"webloom/internal/domain"
	"webloom/internal/ingest"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "WebLoom server is running",
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "WebLoom API Server",
		"version": serverVersion,
		"endpoints": map[string]string{
			"health":   "/health",
			"scrape":   "/api/scrape",
			"question": "/api/question",
		},
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	identity, token, err := s.auth.Signup(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "A valid email address is required")
		return
	case errors.Is(err, auth.ErrAccountExists):
		writeError(w, http.StatusConflict, "Account already exists. Please log in.")
		return
	case err != nil:
		s.logger.Error("signup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Account created successfully",
		"token":   token,
		"user":    identity,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	identity, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case err != nil:
		s.logger.Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged in successfully",
		"token":   token,
		"user":    identity,
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var in ingest.Input
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	owner := ownerScope(r)
	res, err := s.ingest.Ingest(r.Context(), in, owner)
	switch {
	case errors.Is(err, ingest.ErrMissingURL), errors.Is(err, ingest.ErrMissingContent):
		writeError(w, http.StatusBadRequest, "Missing required fields: url and content are required")
		return
	case errors.Is(err, ingest.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "url must be a valid http or https address")
		return
	case err != nil:
		s.logger.Error("scrape insert failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to save scraped content",
			"message": err.Error(),
		})
		return
	}

	total, err := s.store.Count(r.Context(), owner)
	if err != nil {
		s.logger.Error("scrape count failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to save scraped content",
			"message": err.Error(),
		})
		return
	}

	s.scrapesTotal.Inc()
	if all, err := s.store.Count(r.Context(), domain.AllOwners()); err == nil {
		s.documentsGauge.Set(all)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Content scraped and saved successfully",
		"data": map[string]any{
			"id":            res.ID,
			"url":           res.URL,
			"title":         res.Title,
			"contentLength": res.ContentLength,
			"timestamp":     res.CapturedAt,
			"truncated":     res.Truncated,
		},
		"stats": map[string]any{
			"totalScraped": total,
		},
	})
}

func (s *Server) handleListScrapes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	owner := ownerScope(r)

	docs, err := s.store.ListRecent(r.Context(), owner, limit, offset)
	if err != nil {
		s.logger.Error("list scrapes failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch scraped content",
			"message": err.Error(),
		})
		return
	}
	total, err := s.store.Count(r.Context(), owner)
	if err != nil {
		s.logger.Error("count scrapes failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch scraped content",
			"message": err.Error(),
		})
		return
	}

	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    docs,
		"pagination": map[string]any{
			"limit":   limit,
			"offset":  offset,
			"total":   total,
			"hasMore": int64(offset+len(docs)) < total,
		},
	})
}

func (s *Server) handleDeleteScrape(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid content id")
		return
	}

	deleted, err := s.store.Delete(r.Context(), id, ownerScope(r))
	if err != nil {
		s.logger.Error("delete scrape failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete content")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Content not found")
		return
	}

	if all, err := s.store.Count(r.Context(), domain.AllOwners()); err == nil {
		s.documentsGauge.Set(all)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Content deleted",
	})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	start := time.Now()
	result, err := s.pipeline.Answer(r.Context(), req.Question, ownerScope(r))
	switch {
	case errors.Is(err, answer.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	case err != nil:
		s.logger.Error("question failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process question",
			"message": err.Error(),
		})
		return
	}

	s.questionsTotal.Inc()
	s.answerLatency.Observe(time.Since(start).Seconds())
	if !result.Grounded {
		s.fallbackAnswers.Inc()
	}

	references := result.References
	if references == nil {
		references = []domain.Citation{}
	}
	resp := map[string]any{
		"success":    true,
		"question":   strings.TrimSpace(req.Question),
		"answer":     result.Text,
		"references": references,
		"aiPowered":  result.Grounded,
	}
	if result.Grounded {
		resp["note"] = fmt.Sprintf("Answer generated using %s", s.pipeline.ModelName())
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
