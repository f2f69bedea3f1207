package devserver

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(db *DB, users map[string]string, uploadDir string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandler(db, users, uploadDir, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login/", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(TokenAuth(db))
			r.Get("/history/", h.History)
			r.Post("/upload/", h.Upload)
			r.Get("/pdf/", h.Report)
		})
	})

	return r
}
