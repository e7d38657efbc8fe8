package middleware

import (
	"net/http"
	"strings"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/authz"
	"auction-marketplace/backend/internal/security"
	sessionstore "auction-marketplace/backend/internal/session/store"
)

const bearerPrefix = "bearer "

// Client-facing messages for the 401/403 contracts. Kept distinct so a
// caller can tell a missing header from a bad token, but never which crypto
// check failed.
const (
	msgAuthHeaderRequired      = "Authorization header required"
	msgInvalidTokenFormat      = "Invalid token format"
	msgInvalidToken            = "Invalid token"
	msgSessionExpired          = "Session expired"
	msgInsufficientPermissions = "Insufficient permissions"
)

// SessionHeader carries the session id issued at login.
const SessionHeader = "X-Session-ID"

// Authenticate validates the Bearer access token and, when the client
// presents a session id, checks it against the session store. The identity
// lands in context for downstream handlers.
func Authenticate(tokens *security.TokenProvider, sessions sessionstore.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				apperrors.WriteSimpleError(w, http.StatusUnauthorized, msgAuthHeaderRequired)
				return
			}
			if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				apperrors.WriteSimpleError(w, http.StatusUnauthorized, msgInvalidTokenFormat)
				return
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])
			identity, err := tokens.ValidateAccess(token)
			if err != nil {
				apperrors.WriteSimpleError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			sessionID := r.Header.Get(SessionHeader)
			if sessionID != "" {
				sess, err := sessions.Get(r.Context(), sessionID)
				if err != nil {
					apperrors.WriteError(w, err, GetRequestID(r.Context()), true)
					return
				}
				if sess == nil || sess.Data.UserID != identity.UserID {
					apperrors.WriteSimpleError(w, http.StatusUnauthorized, msgSessionExpired)
					return
				}
			}

			ctx := WithIdentity(r.Context(), *identity, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole authorizes the authenticated identity for action on a
// resource type via the policy evaluator. Denials are uniform 403s.
func RequireRole(evaluator authz.Evaluator, action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				apperrors.WriteSimpleError(w, http.StatusUnauthorized, msgAuthHeaderRequired)
				return
			}
			allowed, err := evaluator.Authorize(r.Context(), authz.Input{
				UserID:       identity.UserID,
				Role:         identity.Role,
				Active:       true,
				Action:       action,
				ResourceType: resourceType,
			})
			if err != nil || !allowed {
				apperrors.WriteSimpleError(w, http.StatusForbidden, msgInsufficientPermissions)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
