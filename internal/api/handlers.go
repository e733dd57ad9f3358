package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"smsink/internal/storage"
	"smsink/internal/store"
	"smsink/internal/webhook"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// handleWebhook handles POST /webhook: verify, validate, insert, and map the
// outcome to a status code. Senders can safely retry on any response; a
// replayed delivery answers 200 just like the first one.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	limitedReader := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), body, r.Header.Get("X-Signature"))
	if err != nil {
		s.logger.Error("webhook storage failure", "error", err)
		s.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}

	switch result.Outcome {
	case webhook.OutcomeUnauthorized:
		// Never reveals whether the secret is missing or the signature wrong.
		s.respondError(w, http.StatusUnauthorized, "invalid signature")
	case webhook.OutcomeBadRequest:
		s.respondError(w, http.StatusBadRequest, result.Reason)
	default:
		s.respondJSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
	}
}

// handleListMessages handles GET /messages with pagination and filters.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := clampLimit(q.Get("limit"))
	offset := parseOffset(q.Get("offset"))
	filter := store.Filter{
		FromMSISDN: q.Get("from"),
		Since:      q.Get("since"),
		Q:          q.Get("q"),
	}

	rows, total, err := s.messages.List(r.Context(), filter, limit, offset)
	if err != nil {
		s.logger.Error("list messages failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}

	s.respondJSON(w, http.StatusOK, ListResponse{
		Data:   rows,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// handleStats handles GET /stats (rich projection).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.messages.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// handleStatsSummary handles GET /stats/summary (light projection).
func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.messages.Summary(r.Context())
	if err != nil {
		s.logger.Error("stats summary failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

// handleHealthLive handles GET /health/live. Always alive.
func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}

// handleHealthReady handles GET /health/ready: ready only when the secret is
// configured, the database answers and the messages table exists. The table
// check never creates the table, so readiness recovers by itself once the
// schema appears.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if !s.config.HasSecret {
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
			Error:  "WEBHOOK_SECRET is not configured",
		})
		return
	}

	if err := s.db.PingContext(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
			Error:  "database error: " + err.Error(),
		})
		return
	}

	exists, err := storage.MessagesTableExists(r.Context(), s.db)
	if err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
			Error:  "database error: " + err.Error(),
		})
		return
	}
	if !exists {
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
			Error:  "messages table does not exist",
		})
		return
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

// clampLimit parses the limit query parameter: default 50, floor 1, cap 100.
func clampLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// parseOffset parses the offset query parameter: default 0, never negative.
func parseOffset(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response in {"detail": ...} shape.
func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, ErrorResponse{Detail: detail})
}
