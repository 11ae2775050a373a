// Package server assembles the HTTP routing table.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayush/estatehub/backend/internal/auth"
	"github.com/ayush/estatehub/backend/internal/listing"
	"github.com/ayush/estatehub/backend/internal/metrics"
	"github.com/ayush/estatehub/backend/internal/middleware"
	"github.com/ayush/estatehub/backend/internal/upload"
	"github.com/ayush/estatehub/backend/internal/user"
)

// Deps are the handlers and collaborators the router mounts. Upload, Metrics
// and Gatherer may be nil.
type Deps struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Listings    *listing.Handler
	Upload      *upload.Handler
	Tokens      middleware.TokenVerifier
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	// RequestLog enables chi's request logger.
	RequestLog bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	if d.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	requireAuth := middleware.RequireAuth(d.Tokens)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", d.Auth.Signup)
		r.Post("/signin", d.Auth.Signin)
		r.Post("/google", d.Auth.Google)
		r.Get("/signout", d.Auth.Signout)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(middleware.RequireSelf("id", "You can only update your own account")).
			Post("/update/{id}", d.Users.Update)
		r.With(middleware.RequireSelf("id", "You can only delete your own account")).
			Delete("/delete/{id}", d.Users.Delete)
		r.With(middleware.RequireSelf("id", "You can only view your own listings!")).
			Get("/listings/{id}", d.Users.Listings)
		r.Get("/{id}", d.Users.Get)
	})

	r.Route("/api/listing", func(r chi.Router) {
		r.Get("/get", d.Listings.Search)
		r.Get("/get/{id}", d.Listings.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/create", d.Listings.Create)
			r.Post("/update/{id}", d.Listings.Update)
			r.Delete("/delete/{id}", d.Listings.Delete)
		})
	})

	if d.Upload != nil {
		r.With(requireAuth).Post("/api/upload/images", d.Upload.Images)
	}

	return r
}
