package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Auth    *AuthHandler
	Config  *ConfigHandler
	Query   *QueryHandler
	Health  *HealthHandler
	Guard   *AuthMiddleware
	Origins []string
}

// NewRouter assembles the full route tree. Three auth tiers: public,
// session-only for account and dashboard routes, and session-or-API-key for
// query execution.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	loginLimiter := NewRateLimiter(5, 3)   // brute force protection
	queryLimiter := NewRateLimiter(60, 10) // per credential

	r.Route("/api", func(r chi.Router) {
		// Public
		r.With(loginLimiter.Middleware).Post("/register", deps.Auth.Register)
		r.With(loginLimiter.Middleware).Post("/login", deps.Auth.Login)
		r.Post("/logout", deps.Auth.Logout)
		r.Get("/test-connection", deps.Health.TestConnection)

		// Session only
		r.Group(func(r chi.Router) {
			r.Use(deps.Guard.RequireSession)
			r.Get("/me", deps.Auth.Me)
			r.Post("/generate-apikey", deps.Auth.GenerateAPIKey)
			r.Post("/save-config", deps.Config.Save)
			r.Get("/get-config", deps.Config.Get)
			r.Get("/logs", deps.Query.Logs)
			r.Delete("/logs/clear", deps.Query.Clear)
			r.Get("/analytics", deps.Query.Analytics)
		})

		// Session or API key
		r.Group(func(r chi.Router) {
			r.Use(deps.Guard.RequireCredential)
			r.With(queryLimiter.MiddlewareByCredential).Post("/query", deps.Query.Execute)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
