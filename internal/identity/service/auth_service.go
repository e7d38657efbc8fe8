package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/audit"
	"auction-marketplace/backend/internal/authz"
	"auction-marketplace/backend/internal/identity/domain"
	"auction-marketplace/backend/internal/security"
	sessiondomain "auction-marketplace/backend/internal/session/domain"
	sessionstore "auction-marketplace/backend/internal/session/store"
	"auction-marketplace/backend/internal/validation"
)

// Sentinel errors for the auth service; the handler maps them to responses
// through the central error writer. Login failures share one error value so
// every failure path produces a byte-identical client payload.
var (
	ErrInvalidCredentials     = apperrors.NewAuthentication("Invalid credentials")
	ErrEmailAlreadyRegistered = apperrors.NewConflict("Email already registered")
	ErrInvalidRefreshToken    = apperrors.NewAuthentication("Invalid or expired refresh token")
	ErrUserNotFound           = apperrors.NewNotFound("User")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SecurityLog records security events; implementations are best-effort.
type SecurityLog interface {
	LoginFailure(ctx context.Context, email, userID, reason, ip, userAgent string)
	Event(ctx context.Context, eventType, userID, ip, userAgent string)
}

// ClientInfo is what the transport layer knows about the caller.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}

// LoginResult holds tokens, the created session and the sanitized user.
type LoginResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	SessionID       string
	User            domain.PublicUser
}

// AuthService composes the hasher, token provider, session store and user
// repository into the register/login/refresh/logout/change-password flows.
// It holds no state of its own.
type AuthService struct {
	users    UserRepo
	sessions sessionstore.Store
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	secLog   SecurityLog
}

// NewAuthService returns an AuthService with the given dependencies.
// secLog may be nil.
func NewAuthService(
	users UserRepo,
	sessions sessionstore.Store,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	secLog SecurityLog,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		secLog:   secLog,
	}
}

// Register validates all fields, failing on the first invalid one, checks
// email uniqueness and creates the account with KYC pending. The returned
// user never carries the hash.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.PublicUser, error) {
	email := validation.Email(in.Email)
	if !email.Valid {
		return nil, apperrors.NewValidation(email.Error)
	}
	if res := validation.Password(in.Password); !res.Valid {
		return nil, apperrors.NewValidation(res.Error)
	}
	name := validation.Name(in.Name)
	if !name.Valid {
		return nil, apperrors.NewValidation(name.Error)
	}
	phone := ""
	if in.Phone != "" {
		res := validation.Phone(in.Phone)
		if !res.Valid {
			return nil, apperrors.NewValidation(res.Error)
		}
		phone = res.Sanitized
	}
	role := in.Role
	if role == "" {
		role = authz.RoleBuyer
	}
	if role != authz.RoleBuyer && role != authz.RoleSeller {
		return nil, apperrors.NewValidation("Role must be buyer or seller")
	}

	existing, err := s.users.GetByEmail(ctx, email.Sanitized)
	if err != nil {
		return nil, apperrors.NewDatabase("look up user", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, apperrors.NewDatabase("hash password", err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email.Sanitized,
		Name:         name.Sanitized,
		Phone:        phone,
		Role:         role,
		KYCStatus:    domain.KYCStatusPending,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewDatabase("create user", err)
	}
	pub := user.Public()
	return &pub, nil
}

// Login authenticates email/password, issues both tokens and creates a
// session. Every failure path returns ErrInvalidCredentials to the caller
// and records the real reason in the security log.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	res := validation.Email(email)
	if !res.Valid {
		s.logFailure(ctx, email, "", audit.ReasonInvalidEmail, client)
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, res.Sanitized)
	if err != nil {
		return nil, apperrors.NewDatabase("look up user", err)
	}
	if user == nil {
		s.logFailure(ctx, res.Sanitized, "", audit.ReasonUserNotFound, client)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logFailure(ctx, res.Sanitized, user.ID, audit.ReasonUserInactive, client)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logFailure(ctx, res.Sanitized, user.ID, audit.ReasonInvalidPassword, client)
		return nil, ErrInvalidCredentials
	}

	identity := security.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
	}
	accessToken, accessExp, err := s.tokens.IssueAccess(identity)
	if err != nil {
		return nil, apperrors.NewDatabase("issue access token", err)
	}
	refreshToken, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, apperrors.NewDatabase("issue refresh token", err)
	}
	sessionID, err := s.sessions.Create(ctx, sessiondomain.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Name:      user.Name,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return nil, apperrors.NewDatabase("create session", err)
	}
	if s.secLog != nil {
		s.secLog.Event(ctx, audit.EventLoginSuccess, user.ID, client.IP, client.UserAgent)
	}
	return &LoginResult{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExp,
		RefreshToken:    refreshToken,
		SessionID:       sessionID,
		User:            user.Public(),
	}, nil
}

// Refresh verifies a refresh token and mints a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, apperrors.NewDatabase("look up user", err)
	}
	if user == nil || !user.IsActive {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	accessToken, exp, err := s.tokens.IssueAccess(security.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
	})
	if err != nil {
		return "", time.Time{}, apperrors.NewDatabase("issue access token", err)
	}
	return accessToken, exp, nil
}

// Logout destroys every session for the token's user. Idempotent: no error
// when no sessions existed.
func (s *AuthService) Logout(ctx context.Context, accessToken string, client ClientInfo) error {
	identity, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return ErrInvalidCredentials
	}
	if _, err := s.sessions.DestroyAllForUser(ctx, identity.UserID); err != nil {
		return apperrors.NewDatabase("destroy sessions", err)
	}
	if s.secLog != nil {
		s.secLog.Event(ctx, audit.EventLogout, identity.UserID, client.IP, client.UserAgent)
	}
	return nil
}

// ChangePassword verifies the current password, stores the new hash and
// destroys all sessions so every device must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string, client ClientInfo) error {
	if res := validation.Password(next); !res.Valid {
		return apperrors.NewValidation(res.Error)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NewDatabase("look up user", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash([]byte(next))
	if err != nil {
		return apperrors.NewDatabase("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.NewDatabase("update password", err)
	}
	if _, err := s.sessions.DestroyAllForUser(ctx, userID); err != nil {
		return apperrors.NewDatabase("destroy sessions", err)
	}
	if s.secLog != nil {
		s.secLog.Event(ctx, audit.EventPasswordChanged, userID, client.IP, client.UserAgent)
		s.secLog.Event(ctx, audit.EventSessionsRevoked, userID, client.IP, client.UserAgent)
	}
	return nil
}

func (s *AuthService) logFailure(ctx context.Context, email, userID, reason string, client ClientInfo) {
	if s.secLog == nil {
		return
	}
	s.secLog.LoginFailure(ctx, email, userID, reason, client.IP, client.UserAgent)
}
