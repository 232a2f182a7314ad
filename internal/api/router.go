package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tenantsql/internal/middleware"
	"tenantsql/internal/tenant"
)

// RouterConfig wires the router's collaborators.
type RouterConfig struct {
	Handler        *Handler
	Validator      middleware.JWTValidator
	Policy         tenant.Policy
	RateLimit      middleware.RateLimitConfig
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the HTTP routes. ctx bounds background work such as the
// rate limiter's idle sweep.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Public endpoints
	r.Get("/healthz", cfg.Handler.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(ctx, cfg.RateLimit))
		r.Use(middleware.Authenticate(cfg.Validator, cfg.Policy, logger))
		r.Post("/rewrite", cfg.Handler.Rewrite)
		r.Post("/tables", cfg.Handler.Tables)
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.RequestIDFromContext(r.Context()),
			)
		})
	}
}
