package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled enforces the bearer token on mutating routes and events.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
}

// NewRouter creates a chi router with every route mounted. Reads are
// public; sync, cache clearing and the event stream sit behind auth.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)

	auth := AuthMiddleware(opts.AuthEnabled, opts.Token)
	r.With(auth).Post("/sync-markdown", h.SyncMarkdown)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Access-Control-Allow-Origin", "*"))

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{slug}", h.GetPost)
		r.Get("/sections/{section}", h.PostsBySection)
		r.Get("/categories/{category}", h.PostsByCategory)
		r.Get("/metadata", h.Metadata)
		r.Get("/search", h.Search)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/cache/clear", h.ClearCache)
			if opts.Events != nil {
				r.Get("/events", opts.Events.ServeHTTP)
			}
		})
	})

	return r
}
