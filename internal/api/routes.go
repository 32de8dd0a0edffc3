package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes configures and returns the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", h.handlePing)

	// Credential endpoints
	r.Group(func(r chi.Router) {
		r.Use(h.RateLimit)

		r.Post("/register", h.handleRegister)
		r.Post("/auth", h.handleLogin)
	})

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/files", h.handleListFiles)
		r.Post("/files/upload", h.handleUpload)
		r.Get("/files/download", h.handleDownload)
	})

	return r
}
