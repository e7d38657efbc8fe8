// Package handler exposes the auth service over HTTP. Every response goes
// through one envelope: {success:true, data:...} on the happy path, the
// central error writer otherwise.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/identity/domain"
	"auction-marketplace/backend/internal/identity/service"
	"auction-marketplace/backend/internal/server/middleware"
)

// AuthHandler serves the /api/v1/auth routes.
type AuthHandler struct {
	svc        *service.AuthService
	errLog     *apperrors.Logger
	production bool
}

// NewAuthHandler returns a handler for svc. errLog may be nil.
func NewAuthHandler(svc *service.AuthService, errLog *apperrors.Logger, production bool) *AuthHandler {
	return &AuthHandler{svc: svc, errLog: errLog, production: production}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type loginResponse struct {
	User            domain.PublicUser `json:"user"`
	AccessToken     string            `json:"accessToken"`
	AccessExpiresAt time.Time         `json:"accessExpiresAt"`
	RefreshToken    string            `json:"refreshToken"`
	SessionID       string            `json:"sessionId"`
}

type refreshResponse struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, loginResponse{
		User:            res.User,
		AccessToken:     res.AccessToken,
		AccessExpiresAt: res.AccessExpiresAt,
		RefreshToken:    res.RefreshToken,
		SessionID:       res.SessionID,
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	access, exp, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, refreshResponse{AccessToken: access, AccessExpiresAt: exp})
}

// Logout handles POST /api/v1/auth/logout. The access token doubles as the
// credential and the target: all of its user's sessions are destroyed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		apperrors.WriteSimpleError(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	if err := h.svc.Logout(r.Context(), token, clientInfo(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ChangePassword handles POST /api/v1/auth/change-password. Runs behind the
// auth middleware; the acting user comes from context.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		apperrors.WriteSimpleError(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.svc.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword, clientInfo(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, apperrors.NewValidation("Request body must be valid JSON"))
		return false
	}
	return true
}

func (h *AuthHandler) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	if h.errLog != nil {
		h.errLog.Log(err, apperrors.RequestContext{
			RequestID: requestID,
			IP:        middleware.GetClientIP(ctx),
			UserAgent: middleware.GetUserAgent(ctx),
		})
	}
	apperrors.WriteError(w, err, requestID, h.production)
}

func clientInfo(r *http.Request) service.ClientInfo {
	ctx := r.Context()
	return service.ClientInfo{
		IP:        middleware.GetClientIP(ctx),
		UserAgent: middleware.GetUserAgent(ctx),
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
