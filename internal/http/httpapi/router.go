// Package httpapi assembles the public HTTP surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clicknail/internal/http/handlers"
	"clicknail/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.Logger(app.Logger),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/healthz", app.Health)

	requireSession := middleware.SessionAuth(app.Sessions, app.Logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
		r.Post("/google", app.GoogleLogin)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/verify", app.Verify)
			r.Post("/logout", app.Logout)
		})
	})

	r.Route("/api/feedback", func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/", app.SubmitFeedback)
	})

	r.Route("/api/thumbnail", func(r chi.Router) {
		r.Use(requireSession)
		r.Post("/generate-thumbnail", app.GenerateThumbnail)
		r.Delete("/{id}", app.DeleteThumbnail)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/thumbnails", app.ListThumbnails)
		r.Get("/thumbnail/{id}", app.GetThumbnail)
	})

	return r
}
