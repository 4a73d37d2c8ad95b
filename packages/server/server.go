// Package server exposes the relay over HTTP as /api/agent.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/fetchagent/packages/logging"
	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

const (
	// AgentPath is the route serving relay calls
	AgentPath = "/api/agent"
	// RequestIDHeader carries the per-request id
	RequestIDHeader = "X-Request-ID"

	// maxPayloadBytes bounds the request description, not the relayed response
	maxPayloadBytes = 10 << 20
)

// Executor runs one described request; *relay.Relay satisfies it
type Executor interface {
	Execute(ctx context.Context, desc relay.Description) relay.Result
}

// Server is the HTTP surface for the relay
type Server struct {
	addr     string
	executor Executor
	router   chi.Router
	logger   *slog.Logger
}

type Option func(*Server)

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger.With("component", "server")
		}
	}
}

// New creates a server around executor
func New(executor Executor, opts ...Option) *Server {
	s := &Server{
		addr:     ":8080",
		executor: executor,
		router:   chi.NewRouter(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.requestIDMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.corsMiddleware)

	r.Options(AgentPath, s.optionsHandler("GET, POST"))
	r.Post(AgentPath, s.handleAgentPost)
	r.Get(AgentPath, s.handleAgentGet)
	r.Get("/healthz", s.handleHealth)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
	}
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey struct{}

// RequestID returns the id assigned to the request carried by ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http_request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeResult answers 400 for input validation failures and 200 for
// everything else, including relay failures.
func writeResult(w http.ResponseWriter, res relay.Result) {
	status := http.StatusOK
	if res.StatusText == relay.StatusTextBadRequest {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

// --- HTTP handlers ---

func (s *Server) handleAgentPost(w http.ResponseWriter, r *http.Request) {
	payload := make(map[string]any)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err == nil {
		if err := json.Unmarshal(body, &payload); err != nil {
			// an unreadable payload is treated as empty and fails validation
			payload = make(map[string]any)
		}
	}

	desc := relay.DescriptionFromPayload(payload)
	writeResult(w, s.executor.Execute(r.Context(), desc))
}

func (s *Server) handleAgentGet(w http.ResponseWriter, r *http.Request) {
	desc := relay.Description{
		URL:    r.URL.Query().Get("url"),
		Method: http.MethodGet,
	}
	writeResult(w, s.executor.Execute(r.Context(), desc))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
