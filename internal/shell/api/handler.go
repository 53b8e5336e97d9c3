// Package api provides HTTP handlers for the configuration API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gargooie/Config-control-service/internal/core/render"
	"github.com/Gargooie/Config-control-service/internal/core/schema"
	"github.com/Gargooie/Config-control-service/internal/shell/api/openapi"
	"github.com/Gargooie/Config-control-service/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	renderer *render.Renderer
	spec     *openapi.Generator
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, r *render.Renderer, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if r == nil {
		r = render.NewRenderer()
	}

	spec := openapi.NewGenerator()
	spec.RegisterModel("CreateConfigurationResponse", CreateConfigurationResponse{})
	spec.RegisterModel("HistoryEntry", HistoryEntryResponse{})
	spec.RegisterModel("Health", HealthResponse{})

	return &Handler{
		store:    s,
		renderer: r,
		spec:     spec,
		logger:   l,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Service description
	r.Get("/", h.handleIndex)
	r.Get("/openapi.json", h.handleOpenAPI)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// Configuration routes
	r.Route("/config/{service}", func(r chi.Router) {
		r.Post("/", h.handleCreateConfiguration)
		r.Get("/", h.handleGetConfiguration)
		r.Get("/history", h.handleHistory)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Index / OpenAPI Handlers
// =============================================================================

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, IndexResponse{
		Service: "config-control-service",
		Endpoints: map[string]string{
			"POST /config/{service}":        "Create new configuration version",
			"GET /config/{service}":         "Get configuration (latest or specific version)",
			"GET /config/{service}/history": "Get configuration version history",
			"GET /health":                   "Backend liveness probe",
			"GET /openapi.json":             "OpenAPI 3.0 description of this API",
		},
		Parameters: map[string]string{
			"version":  "Specific version number (optional)",
			"template": "Set to 1 to render the document as a template (optional)",
		},
	})
}

func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.spec.Generate())
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Service:  "config-control-service",
			Error:    err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
		Service:  "config-control-service",
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	checks["database"] = "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Configuration Handlers
// =============================================================================

func (h *Handler) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body", "validation_error")
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		h.writeError(w, http.StatusBadRequest, "empty request body", "validation_error")
		return
	}

	// Parse and schema errors are collected and reported together; a
	// missing version is legal here because Save assigns the next one.
	outcome := schema.ValidateText(string(body))
	if !outcome.Valid {
		h.logger.Info("configuration rejected",
			"service", service,
			"errors", outcome.Errors,
		)
		h.writeError(w, http.StatusUnprocessableEntity,
			"validation errors: "+strings.Join(outcome.Errors, "; "), "validation_error")
		return
	}

	cfg, err := h.store.Save(r.Context(), service, outcome.Document)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			h.writeError(w, http.StatusConflict, err.Error(), "version_conflict")
			return
		}
		h.logger.Error("failed to save configuration", "service", service, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save configuration", "internal_error")
		return
	}

	h.logger.Info("configuration saved", "service", service, "version", cfg.Version)
	h.writeJSON(w, http.StatusCreated, CreateConfigurationResponse{
		Service: cfg.Service,
		Version: cfg.Version,
		Status:  "saved",
	})
}

func (h *Handler) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	query := r.URL.Query()

	version := store.LatestVersion
	if raw := query.Get("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid version parameter", "validation_error")
			return
		}
		version = v
	}

	cfg, err := h.store.Get(r.Context(), service, version)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			msg := fmt.Sprintf("configuration not found for service '%s'", service)
			if version != store.LatestVersion {
				msg = fmt.Sprintf("%s version %d", msg, version)
			}
			h.writeError(w, http.StatusNotFound, msg, "not_found")
			return
		}
		h.logger.Error("failed to get configuration", "service", service, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get configuration", "internal_error")
		return
	}

	payload := cfg.Payload
	if query.Get("template") == "1" {
		ctx := render.BuildContext(templateParams(query))
		rendered, err := h.renderer.Render(payload, ctx)
		if err != nil {
			h.logger.Info("template rendering failed",
				"service", service,
				"version", cfg.Version,
				"error", err,
			)
			h.writeError(w, http.StatusBadRequest,
				"template processing failed: "+err.Error(), "template_error")
			return
		}
		payload = rendered
	}

	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	history, err := h.store.History(r.Context(), service)
	if err != nil {
		h.logger.Error("failed to get history", "service", service, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get history", "internal_error")
		return
	}

	if len(history) == 0 {
		h.writeError(w, http.StatusNotFound,
			fmt.Sprintf("no configuration history found for service '%s'", service), "not_found")
		return
	}

	resp := make([]HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		resp = append(resp, HistoryEntryResponse{
			Version:   entry.Version,
			CreatedAt: entry.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// templateParams collects every query parameter that is not a reserved
// transport parameter into a template context.
func templateParams(query map[string][]string) map[string]any {
	params := make(map[string]any)
	for key, values := range query {
		if key == "version" || key == "template" {
			continue
		}
		if len(values) == 1 {
			params[key] = values[0]
		} else {
			params[key] = values
		}
	}
	return params
}

// =============================================================================
// Response Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
