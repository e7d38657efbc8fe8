package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/audit/domain"
	auditrepo "auction-marketplace/backend/internal/audit/repository"
)

// Event types recorded in the security log.
const (
	EventLoginFailure    = "login_failure"
	EventLoginSuccess    = "login_success"
	EventLogout          = "logout"
	EventPasswordChanged = "password_changed"
	EventSessionsRevoked = "sessions_revoked"
	EventRateLimited     = "rate_limited"
)

// Reason codes for login_failure events. These never reach the client; the
// client-facing message stays "Invalid credentials" on every failure path.
const (
	ReasonInvalidEmail    = "invalid_email"
	ReasonUserNotFound    = "user_not_found"
	ReasonUserInactive    = "user_inactive"
	ReasonInvalidPassword = "invalid_password"
)

// Emitter mirrors security events to an external pipeline (Kafka, OTLP).
// Emit must not block request handling.
type Emitter interface {
	Emit(ctx context.Context, e *domain.SecurityEvent)
}

// SecurityLogger records security events. Writes are best-effort: a failed
// insert is logged and never fails the request that triggered it.
type SecurityLogger struct {
	repo    auditrepo.Repository
	emitter Emitter
	nowF    func() time.Time
}

// NewSecurityLogger returns a logger persisting to repo. emitter may be nil.
func NewSecurityLogger(repo auditrepo.Repository, emitter Emitter) *SecurityLogger {
	return &SecurityLogger{
		repo:    repo,
		emitter: emitter,
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent writes one security event.
func (l *SecurityLogger) LogEvent(ctx context.Context, e domain.SecurityEvent) {
	e.ID = uuid.New().String()
	e.CreatedAt = l.nowF()
	if l.repo != nil {
		if err := l.repo.Create(ctx, &e); err != nil {
			log.Printf("audit: failed to record %s event: %v", e.EventType, err)
		}
	}
	if l.emitter != nil {
		l.emitter.Emit(ctx, &e)
	}
}

// LoginFailure records a failed login attempt with its reason code.
func (l *SecurityLogger) LoginFailure(ctx context.Context, email, userID, reason, ip, userAgent string) {
	l.LogEvent(ctx, domain.SecurityEvent{
		EventType: EventLoginFailure,
		Email:     email,
		UserID:    userID,
		Reason:    reason,
		IP:        ip,
		UserAgent: userAgent,
	})
}

// Event records a security event of the given type for a user.
func (l *SecurityLogger) Event(ctx context.Context, eventType, userID, ip, userAgent string) {
	l.LogEvent(ctx, domain.SecurityEvent{
		EventType: eventType,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
	})
}

// RecordAuthFailure receives the mirror copy of authentication-category
// errors from the application logger.
func (l *SecurityLogger) RecordAuthFailure(entry apperrors.Entry) {
	l.LogEvent(context.Background(), domain.SecurityEvent{
		EventType: EventLoginFailure,
		UserID:    entry.UserID,
		Reason:    entry.Code,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Metadata:  entry.Message,
	})
}
