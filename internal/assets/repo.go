package assets

import (
	"context"
	"time"
)

// Repo persists finalized assets and the upload sessions that precede them.
type Repo interface {
	// Create stores a finalized asset and marks its upload session, if any,
	// finalized in the same unit of work. It returns ErrConflict when the id
	// is already taken.
	Create(ctx context.Context, asset Asset) error
	Get(ctx context.Context, category Category, recResourceID, assetID string) (Asset, error)
	ListByOwner(ctx context.Context, category Category, recResourceID string) ([]Asset, error)
	Delete(ctx context.Context, category Category, recResourceID, assetID string) error

	SaveSession(ctx context.Context, session UploadSession) error
	GetSession(ctx context.Context, assetID string) (UploadSession, error)
	UpdateSessionState(ctx context.Context, assetID string, state SessionState, at time.Time) error
}

// OwnerRepo reports whether a recreation resource exists.
type OwnerRepo interface {
	Exists(ctx context.Context, recResourceID string) (bool, error)
}
