// Package server exposes the scoring pipeline over HTTP. Transport concerns
// only: upload handling, error-to-status mapping, rate limiting, request
// logging. All scoring semantics live in the engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hejijunhao/scalpshield/internal/engine"
	"github.com/hejijunhao/scalpshield/internal/engine/classifier"
	"github.com/hejijunhao/scalpshield/internal/engine/schema"
	"github.com/hejijunhao/scalpshield/internal/ingest"
)

// Config holds transport settings.
type Config struct {
	MaxUploadBytes int64
	RequestsPerSec float64
	Burst          int
}

// Server routes HTTP requests into the scoring engine.
type Server struct {
	engine         *engine.Engine
	limiter        *rate.Limiter
	maxUploadBytes int64
}

// New creates a Server around an engine.
func New(eng *engine.Engine, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	return &Server{
		engine:         eng,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Handler returns the full route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	return s.withCommon(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "ScalpShield scoring API",
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "bad_request", "please upload a CSV file")
		return
	}

	ds, err := ingest.ReadCSV(file)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	resp, err := s.engine.Process(r.Context(), ds)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeFailure maps pipeline errors onto the API error surface. Every
// failure kind has a stable machine-checkable code; schema-level failures
// never carry partial results.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var parseErr *ingest.ParseError
	var schemaErr *schema.Error
	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, "parse_error", err.Error())
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusBadRequest, "schema_error", err.Error())
	case errors.Is(err, engine.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "empty_input", err.Error())
	case errors.Is(err, classifier.ErrModelNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "model_not_loaded", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; the status is best-effort.
		writeError(w, http.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		slog.Error("predict failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// withCommon applies rate limiting and request logging to every route.
func (s *Server) withCommon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}
