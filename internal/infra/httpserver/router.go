package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appalternatives "github.com/labelly/labelly-server/internal/application/alternatives"
	appscans "github.com/labelly/labelly-server/internal/application/scans"
	domai "github.com/labelly/labelly-server/internal/domain/ai"
	"github.com/labelly/labelly-server/internal/domain/auth"
	domain "github.com/labelly/labelly-server/internal/domain/scans"
	"github.com/labelly/labelly-server/internal/middleware"
)

type Router struct {
	scansSvc *appscans.Service
	altSvc   *appalternatives.Service
	log      *zap.Logger
}

// NewRouter wires the HTTP surface. readiness may be nil when no checks are
// registered (the /ready probe then reports ready unconditionally).
func NewRouter(scansSvc *appscans.Service, altSvc *appalternatives.Service, verifier auth.Verifier, readiness http.HandlerFunc, log *zap.Logger) http.Handler {
	r := &Router{scansSvc: scansSvc, altSvc: altSvc, log: log}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestLogger(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	if readiness == nil {
		readiness = func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		}
	}
	mux.Get("/ready", readiness)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.BearerAuth(verifier))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/user/scans", r.wrap(r.handleListScans))
		rt.Get("/user/scans/{id}", r.wrap(r.handleGetScan))
		rt.Post("/alternatives", r.wrap(r.handleAlternatives))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks client-side input problems (HTTP 400)
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var br *badRequestError
		switch {
		case errors.As(err, &br):
			writeError(w, http.StatusBadRequest, br.msg)
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "Scan not found")
		case errors.Is(err, domai.ErrNotJSON):
			writeError(w, http.StatusInternalServerError, "Failed to parse alternatives response")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// POST /api/analyze
// Multipart body with one "image" part; responds with the model's analysis
// text and any citations, after appending a scan record for the caller.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.UserID(req.Context())

	file, header, err := req.FormFile("image")
	if err != nil {
		return badRequest("No image provided")
	}
	defer file.Close()
	if header.Filename == "" {
		return badRequest("No image selected")
	}

	image, err := io.ReadAll(file)
	if err != nil {
		return badRequest("No image provided")
	}

	completion, err := r.scansSvc.Analyze(req.Context(), userID, image)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("Analysis error: %w", err)
	}
	middleware.IncrementAnalyses()

	analysis := completion.Content
	if analysis == "" {
		analysis = "No analysis available"
	}
	citations := completion.Citations
	if citations == nil {
		citations = []string{}
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"analysis":  analysis,
		"citations": citations,
	})
}

// GET /api/user/scans
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.UserID(req.Context())

	scans, err := r.scansSvc.List(req.Context(), userID)
	if err != nil {
		return fmt.Errorf("Error retrieving scans: %w", err)
	}
	if scans == nil {
		scans = []*domain.Scan{}
	}

	return writeJSON(w, http.StatusOK, map[string]any{"scans": scans})
}

// GET /api/user/scans/{id}
func (r *Router) handleGetScan(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.UserID(req.Context())
	id := chi.URLParam(req, "id")

	scan, err := r.scansSvc.Get(req.Context(), userID, domain.ScanID(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("Error retrieving scans: %w", err)
	}

	return writeJSON(w, http.StatusOK, map[string]any{"scan": scan})
}

// POST /api/alternatives
// Body: {"analysis_data": {...}} holding a previously returned analysis.
func (r *Router) handleAlternatives(w http.ResponseWriter, req *http.Request) error {
	userID := middleware.UserID(req.Context())

	var body struct {
		AnalysisData json.RawMessage `json:"analysis_data"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("Invalid request body")
	}
	if len(body.AnalysisData) == 0 || string(body.AnalysisData) == "null" {
		return badRequest("No analysis data provided")
	}

	// The analysis shape is advisory: decode defensively, never reject on
	// missing fields, only on analysis_data not being an object at all.
	var analysis domain.AnalysisResult
	if err := json.Unmarshal(body.AnalysisData, &analysis); err != nil {
		return badRequest("Invalid analysis data")
	}

	result, citations, err := r.altSvc.Suggest(req.Context(), userID, analysis, body.AnalysisData)
	if err != nil {
		middleware.IncrementAlternativesFailed()
		if errors.Is(err, domai.ErrNotJSON) {
			return err
		}
		return fmt.Errorf("Alternatives error: %w", err)
	}
	middleware.IncrementAlternatives()

	if citations == nil {
		citations = []string{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"alternatives": result,
		"citations":    citations,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
