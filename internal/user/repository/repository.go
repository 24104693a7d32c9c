package repository

import (
	"context"

	"collabboard/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists the user and fills in the assigned ID and CreatedAt.
	Create(ctx context.Context, u *domain.User) error
}
