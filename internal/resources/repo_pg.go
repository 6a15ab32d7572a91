package resources

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Exists(ctx context.Context, recResourceID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM recreation_resource WHERE rec_resource_id = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, recResourceID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
