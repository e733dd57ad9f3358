package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"smsink/internal/metrics"
	"smsink/internal/store"
	"smsink/internal/webhook"
)

const DefaultMaxBodySize = 1048576 // 1 MB

// MessageReader is the read side of the store the handlers need.
type MessageReader interface {
	List(ctx context.Context, filter store.Filter, limit, offset int) ([]store.Message, int, error)
	Stats(ctx context.Context) (*store.Stats, error)
	Summary(ctx context.Context) (*store.Summary, error)
}

// Ingestor runs one webhook delivery through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, body []byte, signature string) (webhook.Result, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Listen string
	// HasSecret mirrors whether the webhook secret is configured; readiness
	// reports 503 without it.
	HasSecret bool
	// MaxBodySize bounds webhook request bodies in bytes.
	MaxBodySize int64
}

// Server is the HTTP boundary: routing, request shaping and the mapping from
// ingestion outcomes to status codes.
type Server struct {
	config   Config
	db       *sql.DB
	messages MessageReader
	ingestor Ingestor
	metrics  *metrics.Collector
	logger   *slog.Logger
	server   *http.Server
}

func New(config Config, db *sql.DB, messages MessageReader, ingestor Ingestor, collector *metrics.Collector, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Server{
		config:   config,
		db:       db,
		messages: messages,
		ingestor: ingestor,
		metrics:  collector,
		logger:   logger,
	}
}

// Start starts the HTTP server (blocking until ctx is cancelled).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.observeMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Post("/webhook", s.handleWebhook)
	r.Get("/messages", s.handleListMessages)
	r.Get("/stats", s.handleStats)
	r.Get("/stats/summary", s.handleStatsSummary)
	r.Get("/health/live", s.handleHealthLive)
	r.Get("/health/ready", s.handleHealthReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// requestID assigns a fresh UUID to every request under chi's request-id key
// so handlers and the ingestion pipeline can correlate log lines.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observeMiddleware logs every request as structured JSON and feeds the
// http_requests_total and latency metrics (excludes payload content).
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0

		s.logger.Info("http_request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"latency_ms", latencyMS,
		)

		s.metrics.RecordHTTPRequest(r.URL.Path, ww.Status())
		s.metrics.ObserveLatency(latencyMS)
	})
}
