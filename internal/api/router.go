package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"newsbrief.io/newsbrief/internal/metrics"
)

type RouterConfig struct {
	AllowedOrigins []string
	AuthRateLimit  rate.Limit // requests per second per client IP on /api/auth
	AuthRateBurst  int
	// TrustProxy enables middleware.RealIP. Without a proxy that rewrites the
	// forwarding headers, clients could pick their own rate-limit key.
	TrustProxy bool
}

func NewRouter(apiHandler *APIHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	r.Handle("/metrics", promhttp.Handler())

	limiter := NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{
				"status":    "OK",
				"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Middleware)

			r.Post("/register", MakeHandler(apiHandler.RegisterHandler))
			r.Post("/login", MakeHandler(apiHandler.LoginHandler))
			r.Post("/forgot-password", MakeHandler(apiHandler.ForgotPasswordHandler))
			r.Put("/reset-password/{resetToken}", MakeHandler(apiHandler.ResetPasswordHandler))

			r.Group(func(r chi.Router) {
				r.Use(apiHandler.JWTAuthMiddleware)
				r.Get("/me", MakeHandler(apiHandler.MeHandler))
				r.Put("/profile", MakeHandler(apiHandler.UpdateProfileHandler))
			})
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", MakeHandler(apiHandler.HeadlinesHandler))
			r.Get("/category/{category}", MakeHandler(apiHandler.CategoryHandler))
			r.Get("/search", MakeHandler(apiHandler.SearchHandler))
			r.Get("/{id}", MakeHandler(apiHandler.ArticleHandler))
		})

		// User-authenticated routes
		r.Route("/summaries", func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)
			r.Post("/generate", MakeHandler(apiHandler.GenerateSummaryHandler))
			r.Get("/saved", MakeHandler(apiHandler.ListSavedHandler))
			r.Post("/save/{articleId}", MakeHandler(apiHandler.SaveArticleHandler))
			r.Delete("/unsave/{articleId}", MakeHandler(apiHandler.UnsaveArticleHandler))
		})
	})

	return r
}
