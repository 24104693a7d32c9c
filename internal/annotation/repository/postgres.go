package repository

import (
	"context"
	"database/sql"
	"errors"

	"collabboard/backend/internal/annotation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an annotation repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const annotationColumns = `a.id, a.dashboard_id, a.user_id, u.email, COALESCE(a.data_point, ''),
	a.content, a.x_pos, a.y_pos, a.created_at`

// ListByDashboard returns a dashboard's annotations, newest first, with the
// author's email joined in.
func (r *PostgresRepository) ListByDashboard(ctx context.Context, dashboardID int64) ([]*domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations a JOIN users u ON u.id = a.user_id
		 WHERE a.dashboard_id = $1
		 ORDER BY a.created_at DESC, a.id DESC`,
		dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Annotation
	for rows.Next() {
		var a domain.Annotation
		if err := rows.Scan(&a.ID, &a.DashboardID, &a.UserID, &a.UserEmail, &a.DataPoint,
			&a.Content, &a.XPos, &a.YPos, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// GetByID returns the annotation for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Annotation, error) {
	var a domain.Annotation
	err := r.db.QueryRowContext(ctx,
		`SELECT `+annotationColumns+`
		 FROM annotations a JOIN users u ON u.id = a.user_id
		 WHERE a.id = $1`, id,
	).Scan(&a.ID, &a.DashboardID, &a.UserID, &a.UserEmail, &a.DataPoint,
		&a.Content, &a.XPos, &a.YPos, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Create persists the annotation and fills in the database-assigned fields.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Annotation) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO annotations (dashboard_id, user_id, data_point, content, x_pos, y_pos)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING id, created_at`,
		a.DashboardID, a.UserID, a.DataPoint, a.Content, a.XPos, a.YPos,
	).Scan(&a.ID, &a.CreatedAt)
}

// Update writes the user's annotation. It returns false when no row matched.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Annotation) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE annotations
		 SET data_point = NULLIF($1, ''), content = $2, x_pos = $3, y_pos = $4
		 WHERE id = $5 AND user_id = $6`,
		a.DataPoint, a.Content, a.XPos, a.YPos, a.ID, a.UserID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the user's annotation. It returns false when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM annotations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
