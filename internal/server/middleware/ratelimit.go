package middleware

import (
	"net/http"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/ratelimit"
)

const msgRateLimited = "Too many requests, please try again later"

// RateLimit applies the fixed-window policy for class, keyed by client IP.
// Authenticated routes still limit by IP so a credential-stuffing run
// cannot dodge the limiter by rotating accounts.
func RateLimit(limiter *ratelimit.Limiter, class ratelimit.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.AllowClass(GetClientIP(r.Context()), class) {
				apperrors.WriteSimpleError(w, http.StatusTooManyRequests, msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
