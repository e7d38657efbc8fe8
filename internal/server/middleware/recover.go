package middleware

import (
	"fmt"
	"net/http"

	"auction-marketplace/backend/internal/apperrors"
)

// Recover turns handler panics into the generic 500 response and records
// them through the application logger.
func Recover(logger *apperrors.Logger, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logger != nil {
					logger.Log(err, apperrors.RequestContext{
						RequestID: GetRequestID(ctx),
						IP:        GetClientIP(ctx),
						UserAgent: GetUserAgent(ctx),
					})
				}
				apperrors.WriteError(w, err, GetRequestID(ctx), production)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
