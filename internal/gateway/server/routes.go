package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"latexify/internal/gateway/handler"
	"latexify/internal/gateway/middleware"
)

// NewRouter mounts the health check and the session API. allowedOrigins is
// handed to the CORS middleware.
func NewRouter(sessions *handler.SessionHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/health", handler.Health)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", sessions.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(sessions.WithSession)
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Delete)
			r.Post("/select", sessions.Select)
			r.Put("/details", sessions.Details)
			r.Post("/generate", sessions.Generate)
			r.Get("/export", sessions.Export)
			r.Get("/watch", sessions.Watch)
		})
	})

	return r
}
