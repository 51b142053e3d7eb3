// Package server assembles the HTTP API: chi router, middleware stack and routes.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"session-auth/backend/internal/server/middleware"
	"session-auth/backend/internal/session/handler"
)

// Config holds the router dependencies.
type Config struct {
	Sessions *handler.Handler
	// Auth guards /protected; usually the session service.
	Auth   middleware.Authenticator
	Health http.Handler
	// Registry receives the HTTP metrics and is served on /metrics. Nil disables both.
	Registry *prometheus.Registry
	Log      *zap.Logger

	CORSOrigin         string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	// TrustProxy takes the client IP from forwarding headers instead of the peer address.
	TrustProxy bool
}

// NewRouter returns the API handler.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Sessions == nil || cfg.Auth == nil {
		return nil, errors.New("server: sessions handler and authenticator are required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	cookies := cfg.Sessions.Cookies()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestInfo(cfg.TrustProxy))
	r.Use(chimw.Recoverer)
	r.Use(otelhttp.NewMiddleware("session-auth",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	if cfg.Registry != nil {
		m, err := middleware.NewHTTPMetrics(cfg.Registry)
		if err != nil {
			return nil, err
		}
		r.Use(m.Handler)
	}
	r.Use(middleware.AccessLog(cfg.Log))
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.Deadline(cfg.RequestTimeout))

	if cfg.Health != nil {
		r.Method(http.MethodGet, "/healthz", cfg.Health)
	}
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Post("/signup", cfg.Sessions.Signup)
		r.Post("/login", cfg.Sessions.Login)
		r.Get("/me", cfg.Sessions.Me)
		r.Post("/logout", cfg.Sessions.Logout)
		r.Post(cookies.RefreshPath, cfg.Sessions.Refresh)
		r.With(middleware.RequireAccess(cfg.Auth, cookies.AccessName)).Post("/protected", cfg.Sessions.Protected)
	})

	return r, nil
}
