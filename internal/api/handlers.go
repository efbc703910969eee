package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/postservice"
)

// SourceHeader names the resolver tier that answered a read.
const SourceHeader = "X-Content-Source"

// Info describes the running service for / and /health.
type Info struct {
	Service     string
	Version     string
	Environment string
	StartedAt   time.Time
}

// Handler holds API route handlers.
type Handler struct {
	svc   *postservice.Service
	info  Info
	clock clock.Clock
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service, info Info, c clock.Clock) *Handler {
	if c == nil {
		c = clock.System{}
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = c.Now()
	}
	return &Handler{svc: svc, info: info, clock: c}
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Service: h.info.Service,
		Version: h.info.Version,
		Status:  "running",
		Endpoints: map[string]string{
			"health":       "GET /health",
			"syncMarkdown": "POST /sync-markdown",
			"posts":        "GET /api/posts",
			"post":         "GET /api/posts/{slug}",
			"section":      "GET /api/sections/{section}",
			"category":     "GET /api/categories/{category}",
			"metadata":     "GET /api/metadata",
			"search":       "GET /api/search?q=",
			"clearCache":   "POST /api/cache/clear",
			"events":       "GET /api/events",
		},
	})
}

// Health handles GET /health. It always answers 200; a store that does not
// respond only degrades the status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	driver, connected := h.svc.StoreStatus(r.Context())
	status := "ok"
	if !connected {
		status = "degraded"
	}
	now := h.clock.Now()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      status,
		Service:     h.info.Service,
		Version:     h.info.Version,
		Environment: h.info.Environment,
		Uptime:      now.Sub(h.info.StartedAt).Seconds(),
		Timestamp:   now.UTC(),
		Store:       StoreHealth{Driver: driver, Connected: connected},
	})
}

// SyncMarkdown handles POST /sync-markdown.
func (h *Handler) SyncMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Sync(r.Context(), postservice.TriggerHTTP)
	now := h.clock.Now().UTC()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperr.ErrSyncInProgress) {
			status = http.StatusConflict
		}
		body := timedError(err.Error(), now)
		body.Retryable = apperr.IsRetryable(err)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{
		Success:   true,
		Message:   fmt.Sprintf("synced %d posts", len(rep.Posts)),
		RunID:     rep.RunID,
		Posts:     rep.Posts,
		Errors:    rep.Errors,
		Warnings:  rep.Warnings,
		Timestamp: now,
	})
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, source := h.svc.ListPosts(r.Context())
	writePosts(w, posts, source)
}

// GetPost handles GET /api/posts/{slug}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, source, err := h.svc.GetPost(r.Context(), slug)
	w.Header().Set(SourceHeader, source)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("post not found"))
			return
		}
		slog.Error("get post failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// PostsBySection handles GET /api/sections/{section}.
func (h *Handler) PostsBySection(w http.ResponseWriter, r *http.Request) {
	posts, source := h.svc.PostsBySection(r.Context(), chi.URLParam(r, "section"))
	writePosts(w, posts, source)
}

// PostsByCategory handles GET /api/categories/{category}.
func (h *Handler) PostsByCategory(w http.ResponseWriter, r *http.Request) {
	posts, source := h.svc.PostsByCategory(r.Context(), chi.URLParam(r, "category"))
	writePosts(w, posts, source)
}

// Metadata handles GET /api/metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	md, source := h.svc.Metadata(r.Context())
	w.Header().Set(SourceHeader, source)
	writeJSON(w, http.StatusOK, md)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ClearCache handles POST /api/cache/clear.
func (h *Handler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.svc.ClearCache()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody("Endpoint not found"))
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
}

func writePosts(w http.ResponseWriter, posts []models.Post, source string) {
	w.Header().Set(SourceHeader, source)
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}
