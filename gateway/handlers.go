package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/monitor"
)

// withRequestID tags every request with an ID for log correlation and
// records basic request counters.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		s.requestsTotal.Add(1)

		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.lifecycleMu.Lock()
	started := s.startTime
	s.lifecycleMu.Unlock()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "lawgraph",
		"uptime":  time.Since(started).String(),
		"endpoints": []string{
			"/status", "/stats", "/healthz",
			"/start", "/stop", "/process-now", "/ws",
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.pipeline.Status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.pipeline.SourceStats(r.Context())
	if err != nil {
		s.writeError(w, s.statusFor(err), s.sanitize(err))
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.pipeline.Health()
	code := http.StatusOK
	if !status.IsHealthy() && !status.IsDegraded() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resumed := s.pipeline.Resume()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"polling": true,
		"changed": resumed,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	paused := s.pipeline.Pause()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"polling": false,
		"changed": paused,
	})
}

func (s *Server) handleProcessNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.Allow() {
		s.requestsFailed.Add(1)
		s.writeError(w, http.StatusTooManyRequests, "process rate exceeded, try again later")
		return
	}

	opts, err := parseRunOptions(r)
	if err != nil {
		s.requestsFailed.Add(1)
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	report, err := s.pipeline.RunOnce(ctx, opts)
	if err != nil {
		s.requestsFailed.Add(1)
		s.writeError(w, s.statusFor(err), s.sanitize(err))
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func parseRunOptions(r *http.Request) (monitor.RunOptions, error) {
	var opts monitor.RunOptions
	query := r.URL.Query()

	if raw := query.Get("entity"); raw != "" {
		t, err := entity.ParseType(raw)
		if err != nil {
			return opts, err
		}
		opts.Entity = t
	}
	switch strings.ToLower(query.Get("dry_run")) {
	case "1", "true", "yes":
		opts.DryRun = true
	}
	return opts, nil
}

// statusFor maps pipeline errors to HTTP status codes.
func (s *Server) statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case stderrors.Is(err, errors.ErrBatchInFlight):
		return http.StatusConflict
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sanitize returns a safe message for external clients. Full detail stays
// in the logs.
func (s *Server) sanitize(err error) string {
	switch {
	case err == nil:
		return "internal server error"
	case stderrors.Is(err, errors.ErrBatchInFlight):
		return "a batch is already in flight"
	case errors.IsInvalid(err):
		return "invalid request"
	case errors.IsTransient(err):
		if strings.Contains(err.Error(), "timeout") {
			return "request timeout"
		}
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response write failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]any{
		"error":  message,
		"status": statusCode,
	})
}
