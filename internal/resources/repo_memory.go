package resources

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryRepo constructs a MemoryRepo seeded with ids.
func NewMemoryRepo(ids ...string) *MemoryRepo {
	r := &MemoryRepo{ids: make(map[string]struct{}, len(ids))}
	r.Add(ids...)
	return r
}

// Add registers ids as existing resources.
func (r *MemoryRepo) Add(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			r.ids[id] = struct{}{}
		}
	}
}

func (r *MemoryRepo) Exists(ctx context.Context, recResourceID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[recResourceID]
	return ok, nil
}
