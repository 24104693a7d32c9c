// Package repository persists data sources.
package repository

import (
	"context"

	"collabboard/backend/internal/datasource/domain"
)

// Repository stores data sources. A missing row is (nil, nil), not an error.
type Repository interface {
	ListByDashboard(ctx context.Context, dashboardID int64) ([]*domain.DataSource, error)
	GetByID(ctx context.Context, id int64) (*domain.DataSource, error)
	// Create persists the data source and fills ID and CreatedAt.
	Create(ctx context.Context, ds *domain.DataSource) error
	// Delete reports whether a row matched.
	Delete(ctx context.Context, id int64) (bool, error)
}
