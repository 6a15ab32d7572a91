package assets

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	assets   map[string]Asset
	sessions map[string]UploadSession
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		assets:   make(map[string]Asset),
		sessions: make(map[string]UploadSession),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, asset Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[asset.ID]; ok {
		return ErrConflict
	}
	asset.Variants = append([]Variant(nil), asset.Variants...)
	r.assets[asset.ID] = asset
	if s, ok := r.sessions[asset.ID]; ok {
		s.State = SessionFinalized
		s.UpdatedAt = asset.CreatedAt
		r.sessions[asset.ID] = s
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, category Category, recResourceID, assetID string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[assetID]
	if !ok || a.Category != category || a.RecResourceID != recResourceID {
		return Asset{}, ErrNotFound
	}
	a.Variants = append([]Variant(nil), a.Variants...)
	return a, nil
}

// ListByOwner returns the owner's assets of category, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, category Category, recResourceID string) ([]Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Asset, 0)
	for _, a := range r.assets {
		if a.Category == category && a.RecResourceID == recResourceID {
			a.Variants = append([]Variant(nil), a.Variants...)
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, category Category, recResourceID, assetID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[assetID]
	if !ok || a.Category != category || a.RecResourceID != recResourceID {
		return ErrNotFound
	}
	delete(r.assets, assetID)
	return nil
}

func (r *MemoryRepo) SaveSession(ctx context.Context, session UploadSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[session.AssetID]; ok {
		session.CreatedAt = existing.CreatedAt
	}
	r.sessions[session.AssetID] = session
	return nil
}

func (r *MemoryRepo) GetSession(ctx context.Context, assetID string) (UploadSession, error) {
	if err := ctx.Err(); err != nil {
		return UploadSession{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[assetID]
	if !ok {
		return UploadSession{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) UpdateSessionState(ctx context.Context, assetID string, state SessionState, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[assetID]
	if !ok {
		return ErrNotFound
	}
	s.State = state
	s.UpdatedAt = at
	r.sessions[assetID] = s
	return nil
}
