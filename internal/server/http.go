// Package server assembles the HTTP surface: routes, middleware chain and
// the lifecycle of the listener.
package server

import (
	"context"
	"net/http"
	"time"

	adminhandler "auction-marketplace/backend/internal/admin/handler"
	"auction-marketplace/backend/internal/apperrors"
	auditrepo "auction-marketplace/backend/internal/audit/repository"
	"auction-marketplace/backend/internal/authz"
	healthhandler "auction-marketplace/backend/internal/health/handler"
	identityhandler "auction-marketplace/backend/internal/identity/handler"
	identityservice "auction-marketplace/backend/internal/identity/service"
	"auction-marketplace/backend/internal/ratelimit"
	"auction-marketplace/backend/internal/security"
	sessionstore "auction-marketplace/backend/internal/session/store"
)

// Deps holds the services the HTTP layer exposes.
type Deps struct {
	// Auth is the auth service for register/login/refresh/logout/change-password.
	Auth *identityservice.AuthService
	// Tokens validates Bearer tokens on protected routes.
	Tokens *security.TokenProvider
	// Sessions backs the session check on protected routes.
	Sessions sessionstore.Store
	// Limiter applies the per-class rate policies.
	Limiter *ratelimit.Limiter
	// Authz evaluates role policies for protected routes.
	Authz authz.Evaluator
	// ErrLog is the application error logger; all handler errors route
	// through it.
	ErrLog *apperrors.Logger
	// AuditRepo backs the admin security-event listing. May be nil.
	AuditRepo auditrepo.Repository
	// HealthPinger is used for readiness (e.g. *sql.DB). May be nil.
	HealthPinger healthhandler.Pinger
	// Production controls response verbosity and HSTS.
	Production bool
}

// NewHandler builds the route table.
//
// Route → handler mapping:
//   - POST /api/v1/auth/*            → internal/identity/handler
//   - GET  /api/v1/healthz           → internal/health/handler
//   - GET  /api/v1/admin/*           → internal/admin/handler (admin role)
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := identityhandler.NewAuthHandler(deps.Auth, deps.ErrLog, deps.Production)
	authLimited := func(h http.HandlerFunc) http.Handler {
		return middlewareChain(h,
			middlewareRateLimit(deps, ratelimit.ClassAuth))
	}
	protected := func(h http.Handler) http.Handler {
		return middlewareChain(h,
			middlewareRateLimit(deps, ratelimit.ClassGeneral),
			middlewareAuth(deps))
	}

	mux.Handle("POST /api/v1/auth/register", authLimited(authHandler.Register))
	mux.Handle("POST /api/v1/auth/login", authLimited(authHandler.Login))
	mux.Handle("POST /api/v1/auth/refresh", authLimited(authHandler.Refresh))
	mux.Handle("POST /api/v1/auth/logout", authLimited(authHandler.Logout))
	mux.Handle("POST /api/v1/auth/change-password", protected(http.HandlerFunc(authHandler.ChangePassword)))

	var policyChecker healthhandler.PolicyChecker
	if checker, ok := deps.Authz.(healthhandler.PolicyChecker); ok {
		policyChecker = checker
	}
	mux.Handle("GET /api/v1/healthz", healthhandler.NewHandler(deps.HealthPinger, policyChecker))

	admin := adminhandler.NewHandler(deps.ErrLog, deps.AuditRepo)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middlewareChain(h,
			middlewareRateLimit(deps, ratelimit.ClassGeneral),
			middlewareAuth(deps),
			middlewareRequireAdmin(deps))
	}
	mux.Handle("GET /api/v1/admin/errors", adminOnly(admin.RecentErrors))
	mux.Handle("GET /api/v1/admin/security-events", adminOnly(admin.SecurityEvents))

	return wrapOuter(mux, deps)
}

// Server owns the http.Server lifecycle.
type Server struct {
	httpServer *http.Server
}

// New returns a Server listening on addr with the assembled routes.
func New(addr string, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(deps),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
