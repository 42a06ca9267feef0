// Package router wires the HTTP surface: health endpoints, metrics and the
// gated login route. Record CRUD is served elsewhere; this service only
// exposes what its own concerns need.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-fleet/internal/http/handlers"
	appmw "service-fleet/internal/http/middleware"
	"service-fleet/internal/logx"
)

// Deps holds everything the router mounts.
type Deps struct {
	Logger logx.Logger
	Base   *handlers.Handlers
	Auth   *handlers.AuthHandler
	// LoginGate is the rate-limit middleware; it wraps the login route
	// only, never the health or metrics endpoints.
	LoginGate func(http.Handler) http.Handler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(appmw.Observability(d.Logger))
	r.Use(chimw.Timeout(5 * time.Second))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		if d.LoginGate != nil {
			g.Use(d.LoginGate)
		}
		g.Post("/auth/login", d.Auth.Login)
	})

	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	return r
}
