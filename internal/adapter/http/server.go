// Package http exposes the analysis API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/field-physics-service/internal/domain"
	"github.com/couchcryptid/field-physics-service/internal/pipeline"
)

// defaultRangeDays is the analysis window when the request names no start
// date: the last 30 days ending today.
const defaultRangeDays = 30

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadyFunc adapts a plain function to ReadinessChecker.
type ReadyFunc func(ctx context.Context) error

func (f ReadyFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Analyzer produces a full report for a field and date range.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalysisRequest) (domain.Report, error)
}

// Server exposes the analysis API and the operational endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the analysis routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, analyzer Analyzer, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/water-balance", s.handleAnalysis(func(r domain.Report) any {
		return map[string]any{
			"fieldId":         r.FieldID,
			"location":        r.Location,
			"dateRange":       r.Range,
			"waterBalance":    r.WaterBalance,
			"summary":         r.Summary,
			"recommendations": r.Recommendations,
			"diagnostics":     r.Diagnostics,
			"generatedAt":     r.GeneratedAt,
		}
	}))
	mux.HandleFunc("GET /api/physics/vpd", s.handleAnalysis(func(r domain.Report) any {
		return map[string]any{
			"fieldId":     r.FieldID,
			"location":    r.Location,
			"dateRange":   r.Range,
			"vpdAnalysis": r.VPDAnalysis,
			"generatedAt": r.GeneratedAt,
		}
	}))
	mux.HandleFunc("GET /api/physics/crop-growth", s.handleAnalysis(func(r domain.Report) any {
		return map[string]any{
			"fieldId":     r.FieldID,
			"location":    r.Location,
			"dateRange":   r.Range,
			"cropGrowth":  r.CropGrowth,
			"generatedAt": r.GeneratedAt,
		}
	}))
	mux.HandleFunc("GET /api/physics/yield-stress", s.handleAnalysis(func(r domain.Report) any {
		return map[string]any{
			"fieldId":     r.FieldID,
			"location":    r.Location,
			"dateRange":   r.Range,
			"yieldStress": r.YieldStress,
			"summary":     r.Summary,
			"generatedAt": r.GeneratedAt,
		}
	}))
	mux.HandleFunc("GET /api/report", s.handleAnalysis(func(r domain.Report) any {
		return r
	}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleAnalysis runs one analysis and renders the endpoint's projection of
// the report. Every response carries an X-Request-ID for log correlation.
func (s *Server) handleAnalysis(project func(domain.Report) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		logger := s.logger.With("request_id", requestID, "path", r.URL.Path)

		req, err := parseAnalysisRequest(r)
		if err != nil {
			logger.Warn("bad analysis request", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		report, err := s.analyzer.Analyze(r.Context(), req)
		if err != nil {
			logger.Error("analysis failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
			return
		}

		logger.Info("analysis served",
			"field_id", req.FieldID,
			"days", req.Range.Len(),
			"filled_days", len(report.Diagnostics.FilledDays),
		)
		writeJSON(w, http.StatusOK, project(report))
	}
}

// parseAnalysisRequest reads lat, lng, startDate, endDate, and fieldId
// query parameters. Dates default to the trailing 30-day window.
func parseAnalysisRequest(r *http.Request) (pipeline.AnalysisRequest, error) {
	q := r.URL.Query()

	var geo domain.Geo
	if err := parseFloatParam(q.Get("lat"), -90, 90, &geo.Lat); err != nil {
		return pipeline.AnalysisRequest{}, errors.New("lat must be a number in [-90, 90]")
	}
	if err := parseFloatParam(q.Get("lng"), -180, 180, &geo.Lng); err != nil {
		return pipeline.AnalysisRequest{}, errors.New("lng must be a number in [-180, 180]")
	}

	end := domain.Day(domain.Now())
	if v := q.Get("endDate"); v != "" {
		parsed, err := domain.ParseDay(v)
		if err != nil {
			return pipeline.AnalysisRequest{}, errors.New("endDate must be YYYY-MM-DD")
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -(defaultRangeDays - 1))
	if v := q.Get("startDate"); v != "" {
		parsed, err := domain.ParseDay(v)
		if err != nil {
			return pipeline.AnalysisRequest{}, errors.New("startDate must be YYYY-MM-DD")
		}
		start = parsed
	}

	dr, err := domain.NewDateRange(start, end)
	if err != nil {
		return pipeline.AnalysisRequest{}, errors.New("startDate must not be after endDate")
	}

	return pipeline.AnalysisRequest{
		FieldID: q.Get("fieldId"),
		Geo:     geo,
		Range:   dr,
	}, nil
}

func parseFloatParam(s string, lo, hi float64, dst *float64) error {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < lo || v > hi {
		return errors.New("out of range")
	}
	*dst = v
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
