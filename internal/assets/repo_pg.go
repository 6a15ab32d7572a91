package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts the asset with its variants and finalizes the upload session
// in one transaction.
func (r *PGRepo) Create(ctx context.Context, asset Asset) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insertAsset = `
INSERT INTO assets (
    id,
    rec_resource_id,
    category,
    title,
    file_name,
    extension,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, insertAsset,
		asset.ID,
		asset.RecResourceID,
		string(asset.Category),
		asset.Title,
		asset.FileName,
		asset.Extension,
		asset.CreatedAt,
	); err != nil {
		return mapPGError(err)
	}

	const insertVariant = `
INSERT INTO asset_variants (asset_id, code, position, storage_key, size_bytes)
VALUES ($1, $2, $3, $4, $5)`
	for i, v := range asset.Variants {
		if _, err := tx.ExecContext(ctx, insertVariant, asset.ID, v.Code, i, v.Key, v.SizeBytes); err != nil {
			return mapPGError(err)
		}
	}

	const finalizeSession = `
UPDATE upload_sessions SET state = $2, updated_at = $3
WHERE asset_id = $1`
	if _, err := tx.ExecContext(ctx, finalizeSession, asset.ID, string(SessionFinalized), asset.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepo) Get(ctx context.Context, category Category, recResourceID, assetID string) (Asset, error) {
	const query = `
SELECT id, rec_resource_id, category, title, file_name, extension, created_at
FROM assets
WHERE id = $1 AND rec_resource_id = $2 AND category = $3`
	var a Asset
	var cat string
	err := r.DB.QueryRowContext(ctx, query, assetID, recResourceID, string(category)).Scan(
		&a.ID,
		&a.RecResourceID,
		&cat,
		&a.Title,
		&a.FileName,
		&a.Extension,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, mapPGError(err)
	}
	a.Category = Category(cat)

	const variants = `
SELECT code, storage_key, size_bytes
FROM asset_variants
WHERE asset_id = $1
ORDER BY position`
	rows, err := r.DB.QueryContext(ctx, variants, a.ID)
	if err != nil {
		return Asset{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.Code, &v.Key, &v.SizeBytes); err != nil {
			return Asset{}, err
		}
		a.Variants = append(a.Variants, v)
	}
	return a, rows.Err()
}

// ListByOwner returns the owner's assets of category, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, category Category, recResourceID string) ([]Asset, error) {
	const query = `
SELECT id, rec_resource_id, category, title, file_name, extension, created_at
FROM assets
WHERE rec_resource_id = $1 AND category = $2
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, recResourceID, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Asset, 0)
	index := make(map[string]int)
	for rows.Next() {
		var a Asset
		var cat string
		if err := rows.Scan(&a.ID, &a.RecResourceID, &cat, &a.Title, &a.FileName, &a.Extension, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Category = Category(cat)
		index[a.ID] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	const variants = `
SELECT v.asset_id, v.code, v.storage_key, v.size_bytes
FROM asset_variants v
JOIN assets a ON a.id = v.asset_id
WHERE a.rec_resource_id = $1 AND a.category = $2
ORDER BY v.asset_id, v.position`
	vrows, err := r.DB.QueryContext(ctx, variants, recResourceID, string(category))
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var assetID string
		var v Variant
		if err := vrows.Scan(&assetID, &v.Code, &v.Key, &v.SizeBytes); err != nil {
			return nil, err
		}
		if i, ok := index[assetID]; ok {
			out[i].Variants = append(out[i].Variants, v)
		}
	}
	return out, vrows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, category Category, recResourceID, assetID string) error {
	const query = `DELETE FROM assets WHERE id = $1 AND rec_resource_id = $2 AND category = $3`
	res, err := r.DB.ExecContext(ctx, query, assetID, recResourceID, string(category))
	if err != nil {
		return mapPGError(err)
	}
	return expectAffected(res)
}

// SaveSession inserts the session or updates its state.
func (r *PGRepo) SaveSession(ctx context.Context, s UploadSession) error {
	const query = `
INSERT INTO upload_sessions (
    asset_id,
    rec_resource_id,
    category,
    file_name,
    state,
    expires_at,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (asset_id) DO UPDATE
SET state = EXCLUDED.state, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		s.AssetID,
		s.RecResourceID,
		string(s.Category),
		s.FileName,
		string(s.State),
		s.ExpiresAt,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetSession(ctx context.Context, assetID string) (UploadSession, error) {
	const query = `
SELECT asset_id, rec_resource_id, category, file_name, state, expires_at, created_at, updated_at
FROM upload_sessions
WHERE asset_id = $1`
	var s UploadSession
	var cat, state string
	err := r.DB.QueryRowContext(ctx, query, assetID).Scan(
		&s.AssetID,
		&s.RecResourceID,
		&cat,
		&s.FileName,
		&state,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UploadSession{}, ErrNotFound
		}
		return UploadSession{}, mapPGError(err)
	}
	s.Category = Category(cat)
	s.State = SessionState(state)
	return s, nil
}

func (r *PGRepo) UpdateSessionState(ctx context.Context, assetID string, state SessionState, at time.Time) error {
	const query = `UPDATE upload_sessions SET state = $2, updated_at = $3 WHERE asset_id = $1`
	res, err := r.DB.ExecContext(ctx, query, assetID, string(state), at)
	if err != nil {
		return mapPGError(err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		case pgInvalidTextRep:
			// A malformed UUID names no row.
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message)
		}
	}
	return err
}
