package server

import (
	"net/http"

	"auction-marketplace/backend/internal/ratelimit"
	"auction-marketplace/backend/internal/server/middleware"
)

type wrapper func(http.Handler) http.Handler

// middlewareChain applies wrappers outermost-first.
func middlewareChain(h http.Handler, wrappers ...wrapper) http.Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		h = wrappers[i](h)
	}
	return h
}

// wrapOuter applies the chain every route shares: panic recovery, request
// metadata, security headers.
func wrapOuter(h http.Handler, deps Deps) http.Handler {
	return middlewareChain(h,
		middleware.Recover(deps.ErrLog, deps.Production),
		middleware.RequestMeta,
		middleware.SecurityHeaders(deps.Production),
	)
}

func middlewareRateLimit(deps Deps, class ratelimit.Class) wrapper {
	return middleware.RateLimit(deps.Limiter, class)
}

func middlewareAuth(deps Deps) wrapper {
	return middleware.Authenticate(deps.Tokens, deps.Sessions)
}

func middlewareRequireAdmin(deps Deps) wrapper {
	return middleware.RequireRole(deps.Authz, "admin", "system")
}
