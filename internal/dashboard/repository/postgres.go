package repository

import (
	"context"
	"database/sql"
	"errors"

	"collabboard/backend/internal/dashboard/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a dashboard repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dashboardColumns = `id, name, owner_id, config, version, created_at, updated_at`

// ListByOwner returns the owner's dashboards, most recently updated first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Dashboard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Dashboard
	for rows.Next() {
		var d domain.Dashboard
		if err := rows.Scan(&d.ID, &d.Name, &d.OwnerID, &d.Config, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetByID returns the dashboard for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Dashboard, error) {
	var d domain.Dashboard
	err := r.db.QueryRowContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.OwnerID, &d.Config, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Create persists the dashboard and fills in the database-assigned fields.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Dashboard) error {
	config := d.Config
	if len(config) == 0 {
		config = []byte(`{}`)
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO dashboards (name, owner_id, config) VALUES ($1, $2, $3)
		 RETURNING id, config, version, created_at, updated_at`,
		d.Name, d.OwnerID, config,
	).Scan(&d.ID, &d.Config, &d.Version, &d.CreatedAt, &d.UpdatedAt)
}

// Update writes name and config for the owner's dashboard, bumping the
// version. It returns false when no row matched.
func (r *PostgresRepository) Update(ctx context.Context, d *domain.Dashboard) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE dashboards
		 SET name = $1, config = $2, version = version + 1, updated_at = now()
		 WHERE id = $3 AND owner_id = $4
		 RETURNING version, updated_at`,
		d.Name, d.Config, d.ID, d.OwnerID,
	).Scan(&d.Version, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the owner's dashboard. It returns false when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dashboards WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
