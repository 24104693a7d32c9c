// Package repository persists dashboards.
package repository

import (
	"context"

	"collabboard/backend/internal/dashboard/domain"
)

// Repository stores dashboards. Reads scoped to an owner return only that
// owner's rows; a missing row is (nil, nil), not an error.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Dashboard, error)
	GetByID(ctx context.Context, id int64) (*domain.Dashboard, error)
	// Create persists the dashboard and fills ID, Version, CreatedAt, UpdatedAt.
	Create(ctx context.Context, d *domain.Dashboard) error
	// Update writes name and config, bumps the version, and refreshes
	// UpdatedAt. It reports whether a row matched id and ownerID.
	Update(ctx context.Context, d *domain.Dashboard) (bool, error)
	// Delete reports whether a row matched id and ownerID.
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
}
