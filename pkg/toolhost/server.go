package toolhost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harun/toolplan/internal/observability"
	"github.com/harun/toolplan/internal/tracing"
	"github.com/harun/toolplan/pkg/toolexecutor"
)

// Server is the tool host HTTP server
type Server struct {
	options        ServerOptions
	server         *http.Server
	registry       *toolexecutor.ToolExecutor
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a server for a sealed registry.
func NewServer(options ServerOptions, registry *toolexecutor.ToolExecutor, logger zerolog.Logger) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if !registry.Sealed() {
		return nil, fmt.Errorf("tool registry must be sealed before serving")
	}

	if options.Port == 0 {
		options.Port = 8000
	}
	if options.Host == "" {
		options.Host = "127.0.0.1"
	}
	if options.ReadTimeout == 0 {
		options.ReadTimeout = 30 * time.Second
	}
	if options.MaxBodyBytes == 0 {
		options.MaxBodyBytes = 1 << 20
	}

	s := &Server{
		options:   options,
		registry:  registry,
		logger:    logger,
		startTime: time.Now(),
	}
	if options.RateLimitPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(options.RateLimitPerMinute)
	}
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: options.ReadTimeout,
		ReadTimeout:       options.ReadTimeout,
	}

	return s, nil
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.MetricsHandler())
	return mux
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.options.Host, fmt.Sprintf("%d", s.options.Port))
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Int("tools", s.registry.GetToolCount()).
		Msg("Starting tool host")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start tool host: %w", err)
	}

	return nil
}

// Stop rejects new executions, waits for in-flight ones, then shuts the
// listener down. ctx bounds the whole shutdown.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down tool host")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tool host: %w", err)
	}

	s.logger.Info().Msg("Tool host stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).Seconds(),
		"tools":      s.registry.GetToolCount(),
		"categories": s.registry.Categories(),
		"timestamp":  time.Now().UnixMilli(),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusOK, s.registry.Describe())
		return
	}
	if !toolexecutor.IsValidCategory(category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category: %s", category))
		return
	}
	writeJSON(w, http.StatusOK, s.registry.DescribeCategory(toolexecutor.ToolCategory(strings.ToLower(category))))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	s.inFlightReqs.Add(1)
	s.shutdownMu.RUnlock()
	defer s.inFlightReqs.Done()

	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = gonanoid.Must()
	}
	w.Header().Set(requestIDHeader, requestID)

	ip := clientIP(r)
	logger := s.logger.With().Str("request_id", requestID).Str("ip", ip).Logger()

	if s.rateLimiter != nil && !s.rateLimiter.CheckLimit(ip) {
		retryAfter := s.rateLimiter.GetRetryAfter(ip)
		logger.Warn().Int("retry_after", retryAfter).Msg("Rate limit exceeded")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req ExecuteRequest
	body := http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.Debug().Err(err).Msg("Malformed execute request")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	ctx := tracing.WithRequestID(r.Context(), requestID)
	ctx, span := tracing.StartSpan(ctx, "toolhost", "tool.execute", attribute.String("tool", req.Action))
	result, err := s.registry.Invoke(ctx, req.Action, req.Params)
	tracing.EndSpan(span, err)

	duration := time.Since(startTime)
	observability.RecordToolExecution(req.Action, duration, err == nil)

	status := statusSuccess
	if err != nil {
		status = "error"
	}
	observability.RecordToolAudit(ctx, req.Action, ip, status, map[string]interface{}{
		"request_id":  requestID,
		"duration_ms": duration.Milliseconds(),
	})

	if err != nil {
		var notFound *toolexecutor.ToolNotFoundError
		var execErr *toolexecutor.ToolExecutionError
		switch {
		case errors.As(err, &notFound):
			logger.Warn().Str("tool", req.Action).Msg("Unknown tool requested")
			writeError(w, http.StatusNotFound, fmt.Sprintf("Tool '%s' not found", req.Action))
		case errors.As(err, &execErr):
			logger.Error().Str("tool", req.Action).Dur("duration", duration).Str("error", execErr.Message).Msg("Tool execution failed")
			writeError(w, http.StatusInternalServerError, execErr.Message)
		default:
			logger.Error().Err(err).Str("tool", req.Action).Msg("Tool execution failed")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Info().Str("tool", req.Action).Dur("duration", duration).Msg("Tool executed")
	writeJSON(w, http.StatusOK, ExecuteResponse{Status: statusSuccess, Result: result})
}

// writeJSON encodes before writing so an unencodable result becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Detail: fmt.Sprintf("failed to encode result: %v", err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.Copy(w, &buf)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
