package assets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"rec-admin-backend/internal/shared/storage/object"
)

var errStorage = errors.New("storage unavailable")

// fakeBucket is an in-memory object.BucketHandle that records every call.
type fakeBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string]object.PutInput
	puts    []string
	deletes []string
	// deleteCtxErrs holds ctx.Err() as seen by each DeleteObject call.
	deleteCtxErrs []error
	presign []object.PresignPutInput

	failPutAt  int // 1-based put call that fails; 0 never
	putErr     error
	deleteErr  error
	listErr    error
	presignErr error
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{name: name, objects: make(map[string]object.PutInput)}
}

func (b *fakeBucket) Bucket() string { return b.name }

func (b *fakeBucket) PutObject(_ context.Context, in object.PutInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts = append(b.puts, in.Key)
	if b.failPutAt > 0 && len(b.puts) == b.failPutAt {
		if b.putErr != nil {
			return b.putErr
		}
		return errStorage
	}
	b.objects[in.Key] = in
	return nil
}

func (b *fakeBucket) DeleteObject(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	b.deleteCtxErrs = append(b.deleteCtxErrs, ctx.Err())
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBucket) ListObjects(_ context.Context, prefix string) ([]object.Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []object.Summary
	for key, in := range b.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, object.Summary{Key: key, Size: int64(len(in.Body))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *fakeBucket) PresignPut(_ context.Context, in object.PresignPutInput) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.presignErr != nil {
		return "", b.presignErr
	}
	b.presign = append(b.presign, in)
	return "https://storage.test/" + b.name + "/" + in.Key + "?X-Amz-Signature=abc", nil
}

func (b *fakeBucket) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	if b.presignErr != nil {
		return "", b.presignErr
	}
	return "https://storage.test/" + b.name + "/" + key + "?X-Amz-Expires=" + expires.String(), nil
}

func (b *fakeBucket) objectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
