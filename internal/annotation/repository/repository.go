// Package repository persists annotations.
package repository

import (
	"context"

	"collabboard/backend/internal/annotation/domain"
)

// Repository stores annotations. A missing row is (nil, nil), not an error.
type Repository interface {
	ListByDashboard(ctx context.Context, dashboardID int64) ([]*domain.Annotation, error)
	GetByID(ctx context.Context, id int64) (*domain.Annotation, error)
	// Create persists the annotation and fills ID and CreatedAt.
	Create(ctx context.Context, a *domain.Annotation) error
	// Update writes content, data point, and position if the annotation
	// belongs to userID. It reports whether a row matched.
	Update(ctx context.Context, a *domain.Annotation) (bool, error)
	// Delete removes the annotation if it belongs to userID. It reports
	// whether a row matched.
	Delete(ctx context.Context, id, userID int64) (bool, error)
}
