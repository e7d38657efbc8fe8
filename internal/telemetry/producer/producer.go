// Package producer emits security events to Kafka for downstream fraud and
// incident tooling.
package producer

import (
	"context"

	auditdomain "auction-marketplace/backend/internal/audit/domain"
)

// Producer emits security events. Callers use it best-effort: log and
// ignore errors.
type Producer interface {
	Emit(ctx context.Context, event *auditdomain.SecurityEvent) error
	// Close releases the underlying writer. Safe to call more than once.
	Close() error
}
