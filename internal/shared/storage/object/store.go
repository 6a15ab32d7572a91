package object

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidArgument marks malformed caller input. It is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBucketNameRequired is returned when a bucket name is empty after trimming.
	ErrBucketNameRequired = fmt.Errorf("%w: bucket name is required", ErrInvalidArgument)

	// ErrPresignUnsupported is returned by backends that cannot issue signed URLs.
	ErrPresignUnsupported = errors.New("presigned urls are not supported by this store")
)

// PutInput describes a single object write.
type PutInput struct {
	Key         string
	Body        []byte
	ContentType string
	Tags        map[string]string
}

// PresignPutInput describes a signed URL authorizing exactly one PUT to Key.
type PresignPutInput struct {
	Key         string
	ContentType string
	Tags        map[string]string
	Expires     time.Duration
}

// Summary is one entry of a prefix listing.
type Summary struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BucketHandle is a reusable storage client bound to exactly one bucket.
// Handles are owned by a Registry; callers never close them.
type BucketHandle interface {
	Bucket() string
	PutObject(ctx context.Context, in PutInput) error
	// DeleteObject is idempotent: deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) ([]Summary, error)
	PresignPut(ctx context.Context, in PresignPutInput) (string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// StorageError wraps a failure from the underlying put/delete/list/presign call.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s bucket=%s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s bucket=%s key=%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err originated in a storage backend call.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
