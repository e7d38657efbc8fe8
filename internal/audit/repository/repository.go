package repository

import (
	"context"

	"auction-marketplace/backend/internal/audit/domain"
)

// Repository defines persistence for security events.
type Repository interface {
	Create(ctx context.Context, e *domain.SecurityEvent) error
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.SecurityEvent, error)
	ListRecent(ctx context.Context, limit, offset int32) ([]*domain.SecurityEvent, error)
}
