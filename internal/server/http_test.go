package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/authz"
	"auction-marketplace/backend/internal/identity/domain"
	identityservice "auction-marketplace/backend/internal/identity/service"
	"auction-marketplace/backend/internal/ratelimit"
	"auction-marketplace/backend/internal/security"
	sessionstore "auction-marketplace/backend/internal/session/store"
)

type memUsers struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.byEmail[email], nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.byID[id], nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	cp := *u
	m.byEmail[u.Email] = &cp
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatal(err)
	}
	evaluator, err := authz.NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	users := &memUsers{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
	sessions := sessionstore.NewMemoryStore()
	svc := identityservice.NewAuthService(users, sessions, security.NewHasher(bcrypt.MinCost), tokens, nil)
	return NewHandler(Deps{
		Auth:       svc,
		Tokens:     tokens,
		Sessions:   sessions,
		Limiter:    ratelimit.NewLimiter(),
		Authz:      evaluator,
		ErrLog:     apperrors.NewLogger(false, nil, nil),
		Production: true,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:4242"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body.Data
}

func registerAndLogin(t *testing.T, h http.Handler, email string) map[string]any {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "password": "Str0ng!Pass", "name": "Jo"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": "Str0ng!Pass"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	return data(t, rec)
}

func TestAuthFlow(t *testing.T) {
	h := newTestServer(t)
	login := registerAndLogin(t, h, "a@b.com")

	access := login["accessToken"].(string)
	sessionID := login["sessionId"].(string)

	// Protected route works with token + session.
	rec := do(t, h, http.MethodPost, "/api/v1/auth/change-password",
		map[string]string{"currentPassword": "Str0ng!Pass", "newPassword": "N3w!Passw0rd"},
		map[string]string{"Authorization": "Bearer " + access, "X-Session-ID": sessionID})
	if rec.Code != http.StatusOK {
		t.Fatalf("change-password: %d %s", rec.Code, rec.Body.String())
	}

	// Password change destroyed the session: the old session id is expired.
	rec = do(t, h, http.MethodPost, "/api/v1/auth/change-password",
		map[string]string{"currentPassword": "N3w!Passw0rd", "newPassword": "An0ther!Pass"},
		map[string]string{"Authorization": "Bearer " + access, "X-Session-ID": sessionID})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale session: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "Session expired" {
		t.Errorf("error = %q, want Session expired", body["error"])
	}
}

func TestLoginRateLimit(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "a@b.com", "password": "Str0ng!Pass", "name": "Jo"}, nil)

	// One auth request spent on register; four wrong-password logins use up
	// the 5/15min budget, so the next attempt is limited regardless of
	// credential correctness.
	var rec *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		rec = do(t, h, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"email": "a@b.com", "password": "Wr0ng!Pass"}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d %s", i+1, rec.Code, rec.Body.String())
		}
	}
	rec = do(t, h, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@b.com", "password": "Str0ng!Pass"}, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("6th auth request: %d, want 429", rec.Code)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	h := newTestServer(t)
	login := registerAndLogin(t, h, "a@b.com")

	rec := do(t, h, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refreshToken": login["refreshToken"].(string)}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/auth/logout", nil,
		map[string]string{"Authorization": "Bearer " + login["accessToken"].(string)})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newTestServer(t)
	login := registerAndLogin(t, h, "buyer@b.com")

	rec := do(t, h, http.MethodGet, "/api/v1/admin/errors", nil,
		map[string]string{"Authorization": "Bearer " + login["accessToken"].(string)})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer on admin route: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/admin/errors", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous on admin route: %d", rec.Code)
	}
}

func TestHealthRoute(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/healthz", nil, nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers on response")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}
