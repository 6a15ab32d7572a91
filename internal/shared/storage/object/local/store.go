package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rec-admin-backend/internal/shared/storage/object"
)

// Store implements object.BucketHandle on the local filesystem. Each bucket is
// a directory under baseDir. Presigning is not supported.
type Store struct {
	root   string
	bucket string
}

// New creates a local handle for bucket rooted at baseDir/bucket.
func New(baseDir, bucket string) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, object.ErrBucketNameRequired
	}
	if strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return nil, fmt.Errorf("%w: invalid bucket name %q", object.ErrInvalidArgument, bucket)
	}
	return &Store{root: filepath.Join(baseDir, bucket), bucket: bucket}, nil
}

func (s *Store) Bucket() string { return s.bucket }

// PutObject writes the body to disk at the key. Tags and content type are not
// persisted.
func (s *Store) PutObject(ctx context.Context, in object.PutInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(in.Key)
	if err != nil {
		return &object.StorageError{Op: "local put object", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return &object.StorageError{Op: "local put object", Bucket: s.bucket, Key: in.Key, Err: fmt.Errorf("mkdir: %w", err)}
	}
	if err := os.WriteFile(fullPath, in.Body, 0o644); err != nil {
		return &object.StorageError{Op: "local put object", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return &object.StorageError{Op: "local delete object", Bucket: s.bucket, Key: key, Err: err}
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &object.StorageError{Op: "local delete object", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

// ListObjects walks the bucket directory and returns files whose slash-separated
// key starts with prefix, sorted by key.
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]object.Summary, error) {
	var out []object.Summary
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, object.Summary{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, &object.StorageError{Op: "local list objects", Bucket: s.bucket, Key: prefix, Err: err}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) PresignPut(context.Context, object.PresignPutInput) (string, error) {
	return "", object.ErrPresignUnsupported
}

func (s *Store) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", object.ErrPresignUnsupported
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: invalid storage key", object.ErrInvalidArgument)
	}
	return filepath.Join(s.root, clean), nil
}

var _ object.BucketHandle = (*Store)(nil)
