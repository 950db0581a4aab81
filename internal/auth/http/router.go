// Package http exposes the authentication service over JSON endpoints.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/fernwood-health/apothecary/pkg/cookiex"
	"github.com/fernwood-health/apothecary/pkg/httpx"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
	"github.com/fernwood-health/apothecary/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *sessiontoken.Codec
	cookies      *cookiex.Manager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	LoginService *service.LoginService
	Metrics      *Metrics

	// Pingers are readiness checks keyed by dependency name.
	Pingers map[string]store.Pinger

	// MetricsHandler serves the Prometheus scrape endpoint when set.
	MetricsHandler http.Handler
}

func NewRouter(
	codec *sessiontoken.Codec,
	cookies *cookiex.Manager,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		cookies:      cookies,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		LoginService: r.LoginService,
		Cookies:      r.cookies,
		Metrics:      r.Metrics,
	}
	sendCodeHandler := &SendCodeHandler{LoginService: r.LoginService}
	verifyCodeHandler := &VerifyCodeHandler{
		LoginService: r.LoginService,
		Cookies:      r.cookies,
		Metrics:      r.Metrics,
	}
	logoutHandler := &LogoutHandler{Cookies: r.cookies}
	whoamiHandler := &WhoamiHandler{}

	// Credential and code submission endpoints carry strict per-IP
	// limits: these are the brute-force surface.
	r.Mux.Handle("POST /login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /send-code",
		httpx.Chain(sendCodeHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /verify-code",
		httpx.Chain(verifyCodeHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Rate limit sits outside the session middleware so a flood of junk
	// tokens is rejected before any signature verification work.
	r.Mux.Handle("GET /whoami",
		httpx.Chain(whoamiHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
			httpx.SessionMiddleware(r.codec, r.cookies.Name()),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Pingers),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}
