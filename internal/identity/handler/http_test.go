package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/identity/domain"
	"auction-marketplace/backend/internal/identity/service"
	"auction-marketplace/backend/internal/security"
	"auction-marketplace/backend/internal/server/middleware"
	sessionstore "auction-marketplace/backend/internal/session/store"
)

type memoryUsers struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.byEmail[email], nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.byID[id], nil
}

func (m *memoryUsers) Create(_ context.Context, u *domain.User) error {
	cp := *u
	m.byEmail[u.Email] = &cp
	m.byID[u.ID] = &cp
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

func newTestHandler(t *testing.T) (*AuthHandler, *service.AuthService) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatal(err)
	}
	svc := service.NewAuthService(newMemoryUsers(), sessionstore.NewMemoryStore(),
		security.NewHasher(bcrypt.MinCost), tokens, nil)
	return NewAuthHandler(svc, apperrors.NewLogger(false, nil, nil), true), svc
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if !body.Success {
		t.Fatalf("success = false in %s", rec.Body.String())
	}
	return body.Data
}

func TestRegisterEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h.Register, registerRequest{
		Email:    "a@B.COM ",
		Password: "Str0ng!Pass",
		Name:     "Jo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["email"] != "a@b.com" {
		t.Errorf("email = %v, want normalized a@b.com", data["email"])
	}
	if data["kycStatus"] != "pending" {
		t.Errorf("kycStatus = %v", data["kycStatus"])
	}
	if _, leaked := data["passwordHash"]; leaked {
		t.Error("password hash leaked in response")
	}
}

func TestRegisterEndpoint_WeakPassword(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h.Register, registerRequest{Email: "a@b.com", Password: "weak", Name: "Jo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRegisterEndpoint_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLoginEndpoint_EnumerationResistance(t *testing.T) {
	h, _ := newTestHandler(t)
	if rec := postJSON(t, h.Register, registerRequest{Email: "known@b.com", Password: "Str0ng!Pass", Name: "Jo"}); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}

	unknown := postJSON(t, h.Login, loginRequest{Email: "ghost@b.com", Password: "Str0ng!Pass"})
	wrongPassword := postJSON(t, h.Login, loginRequest{Email: "known@b.com", Password: "Wr0ng!Pass"})

	if unknown.Code != http.StatusUnauthorized || wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401", unknown.Code, wrongPassword.Code)
	}
	if got, want := wrongPassword.Body.String(), unknown.Body.String(); got != want {
		t.Errorf("failure payloads differ:\n%s\n%s", got, want)
	}
}

func TestLoginEndpoint_Success(t *testing.T) {
	h, _ := newTestHandler(t)
	postJSON(t, h.Register, registerRequest{Email: "a@b.com", Password: "Str0ng!Pass", Name: "Jo"})
	rec := postJSON(t, h.Login, loginRequest{Email: "a@b.com", Password: "Str0ng!Pass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	for _, key := range []string{"accessToken", "refreshToken", "sessionId", "user"} {
		if _, ok := data[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestRefreshEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	postJSON(t, h.Register, registerRequest{Email: "a@b.com", Password: "Str0ng!Pass", Name: "Jo"})
	login := decodeData(t, postJSON(t, h.Login, loginRequest{Email: "a@b.com", Password: "Str0ng!Pass"}))

	rec := postJSON(t, h.Refresh, refreshRequest{RefreshToken: login["refreshToken"].(string)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data := decodeData(t, rec); data["accessToken"] == "" {
		t.Error("no access token in refresh response")
	}

	// An access token is rejected where a refresh token is required.
	bad := postJSON(t, h.Refresh, refreshRequest{RefreshToken: login["accessToken"].(string)})
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("access-as-refresh: status = %d", bad.Code)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	postJSON(t, h.Register, registerRequest{Email: "a@b.com", Password: "Str0ng!Pass", Name: "Jo"})
	login := decodeData(t, postJSON(t, h.Login, loginRequest{Email: "a@b.com", Password: "Str0ng!Pass"}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+login["accessToken"].(string))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Without a token the endpoint refuses.
	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", rec.Code)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	reg := decodeData(t, postJSON(t, h.Register, registerRequest{Email: "a@b.com", Password: "Str0ng!Pass", Name: "Jo"}))

	raw, _ := json.Marshal(changePasswordRequest{CurrentPassword: "Str0ng!Pass", NewPassword: "N3w!Passw0rd"})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req = req.WithContext(middleware.WithIdentity(req.Context(),
		security.Identity{UserID: reg["id"].(string)}, ""))
	rec := httptest.NewRecorder()
	h.ChangePassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Unauthenticated requests never reach the service.
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d", rec.Code)
	}
}
