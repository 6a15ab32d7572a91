package object

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"rec-admin-backend/internal/shared/telemetry"
)

// Constructor builds a new client for one bucket. It is the expensive step the
// registry exists to amortize.
type Constructor func(bucket string) (BucketHandle, error)

// Registry creates and caches one BucketHandle per trimmed bucket name.
type Registry struct {
	ctor Constructor

	mu      sync.RWMutex
	handles map[string]BucketHandle
	gen     uint64 // bumped by ClearCache
	group   singleflight.Group
}

// NewRegistry returns an empty registry that builds clients with ctor.
func NewRegistry(ctor Constructor) *Registry {
	return &Registry{
		ctor:    ctor,
		handles: make(map[string]BucketHandle),
	}
}

// CreateForBucket returns the cached handle for name, constructing it on first use.
// "  foo  " and "foo" resolve to the same handle.
func (r *Registry) CreateForBucket(name string) (BucketHandle, error) {
	bucket := strings.TrimSpace(name)
	if bucket == "" {
		return nil, ErrBucketNameRequired
	}

	h, gen, ok := r.lookup(bucket)
	if ok {
		return h, nil
	}

	// Concurrent first requests for the same bucket share one construction.
	// The key carries the generation so calls after a ClearCache never join a
	// construction that started before it.
	v, err, _ := r.group.Do(fmt.Sprintf("%d/%s", gen, bucket), func() (any, error) {
		h, err := r.ctor(bucket)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen {
			telemetry.Info("storage.client.discarded", map[string]any{"bucket": bucket})
			return h, nil
		}
		if cached, ok := r.handles[bucket]; ok {
			return cached, nil
		}
		r.handles[bucket] = h
		telemetry.Info("storage.client.created", map[string]any{"bucket": bucket})
		return h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client bucket=%s: %w", bucket, err)
	}
	return v.(BucketHandle), nil
}

// ClearCache drops every cached handle. Later calls construct fresh clients,
// and constructions still running when it is called are not cached.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if len(r.handles) == 0 {
		return
	}
	r.handles = make(map[string]BucketHandle)
	telemetry.Info("storage.client.cache_cleared", nil)
}

// Len reports the number of cached handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

func (r *Registry) lookup(bucket string) (BucketHandle, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[bucket]
	return h, r.gen, ok
}
