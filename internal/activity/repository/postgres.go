package repository

import (
	"context"
	"database/sql"

	"collabboard/backend/internal/activity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the entry and fills in the database-assigned ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	details := e.Details
	if len(details) == 0 {
		details = nil
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO activity_logs (user_id, dashboard_id, action, details)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		e.UserID, e.DashboardID, e.Action, details,
	).Scan(&e.ID, &e.CreatedAt)
}

// ListByDashboard returns the most recent entries for a dashboard, newest
// first. A non-positive limit selects the default of 50.
func (r *PostgresRepository) ListByDashboard(ctx context.Context, dashboardID int64, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, COALESCE(user_id, 0), dashboard_id, action, COALESCE(details, 'null'), created_at
		 FROM activity_logs
		 WHERE dashboard_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		dashboardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.DashboardID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
