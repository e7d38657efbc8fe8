package repository

import (
	"context"

	"auction-marketplace/backend/internal/identity/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) for
// missing rows; errors mean database failure only.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
}
