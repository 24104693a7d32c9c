// Package repository persists activity log entries.
package repository

import (
	"context"

	"collabboard/backend/internal/activity/domain"
)

// Repository stores and lists activity entries.
type Repository interface {
	// Create inserts the entry and fills ID and CreatedAt.
	Create(ctx context.Context, e *domain.Entry) error
	// ListByDashboard returns the most recent entries for a dashboard,
	// newest first, capped at limit.
	ListByDashboard(ctx context.Context, dashboardID int64, limit int) ([]*domain.Entry, error)
}
