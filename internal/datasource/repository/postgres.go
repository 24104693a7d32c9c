package repository

import (
	"context"
	"database/sql"
	"errors"

	"collabboard/backend/internal/datasource/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a data source repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dataSourceColumns = `id, dashboard_id, name, type, COALESCE(file_path, ''), data, metadata, created_at`

// ListByDashboard returns a dashboard's data sources, newest first.
func (r *PostgresRepository) ListByDashboard(ctx context.Context, dashboardID int64) ([]*domain.DataSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dataSourceColumns+` FROM data_sources WHERE dashboard_id = $1 ORDER BY created_at DESC, id DESC`,
		dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DataSource
	for rows.Next() {
		var ds domain.DataSource
		if err := rows.Scan(&ds.ID, &ds.DashboardID, &ds.Name, &ds.Type, &ds.FilePath,
			&ds.Data, &ds.Metadata, &ds.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ds)
	}
	return out, rows.Err()
}

// GetByID returns the data source for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.DataSource, error) {
	var ds domain.DataSource
	err := r.db.QueryRowContext(ctx,
		`SELECT `+dataSourceColumns+` FROM data_sources WHERE id = $1`, id,
	).Scan(&ds.ID, &ds.DashboardID, &ds.Name, &ds.Type, &ds.FilePath,
		&ds.Data, &ds.Metadata, &ds.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ds, nil
}

// Create persists the data source and fills in the database-assigned fields.
func (r *PostgresRepository) Create(ctx context.Context, ds *domain.DataSource) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO data_sources (dashboard_id, name, type, file_path, data, metadata)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		 RETURNING id, created_at`,
		ds.DashboardID, ds.Name, ds.Type, ds.FilePath, ds.Data, ds.Metadata,
	).Scan(&ds.ID, &ds.CreatedAt)
}

// Delete removes the data source. It returns false when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM data_sources WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
