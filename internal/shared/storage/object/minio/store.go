// Package minio implements object.BucketHandle on any S3-compatible server
// reachable through minio-go, typically a local MinIO container in development.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rec-admin-backend/internal/shared/storage/object"
)

// Options configures the connection to the S3-compatible server.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Store implements object.BucketHandle for a single bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a client for bucket. No network call is made; use EnsureBucket
// to create the bucket on first run.
func New(bucket string, opts Options) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, object.ErrBucketNameRequired
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: minio endpoint is required", object.ErrInvalidArgument)
	}
	// minio.New wants host[:port] only.
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	endpoint = strings.TrimSuffix(endpoint, "/")

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &object.StorageError{Op: "minio bucket exists", Bucket: s.bucket, Err: err}
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return &object.StorageError{Op: "minio make bucket", Bucket: s.bucket, Err: err}
	}
	return nil
}

func (s *Store) Bucket() string { return s.bucket }

func (s *Store) PutObject(ctx context.Context, in object.PutInput) error {
	_, err := s.client.PutObject(ctx, s.bucket, in.Key, bytes.NewReader(in.Body), int64(len(in.Body)), minio.PutObjectOptions{
		ContentType: in.ContentType,
		UserTags:    in.Tags,
	})
	if err != nil {
		return &object.StorageError{Op: "minio put object", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	return nil
}

// DeleteObject removes key. Deleting a missing key succeeds.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return &object.StorageError{Op: "minio remove object", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

func (s *Store) ListObjects(ctx context.Context, prefix string) ([]object.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []object.Summary
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, &object.StorageError{Op: "minio list objects", Bucket: s.bucket, Key: prefix, Err: info.Err}
		}
		out = append(out, object.Summary{Key: info.Key, Size: info.Size, LastModified: info.LastModified})
	}
	return out, nil
}

// PresignPut signs a PUT with the content type and tagging headers the
// uploader must replay.
func (s *Store) PresignPut(ctx context.Context, in object.PresignPutInput) (string, error) {
	headers := http.Header{}
	if in.ContentType != "" {
		headers.Set("Content-Type", in.ContentType)
	}
	if tagging := encodeTags(in.Tags); tagging != "" {
		headers.Set("X-Amz-Tagging", tagging)
	}
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, in.Key, in.Expires, nil, headers)
	if err != nil {
		return "", &object.StorageError{Op: "minio presign put", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	return u.String(), nil
}

func (s *Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, nil)
	if err != nil {
		return "", &object.StorageError{Op: "minio presign get", Bucket: s.bucket, Key: key, Err: err}
	}
	return u.String(), nil
}

func encodeTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, k := range keys {
		values.Set(k, tags[k])
	}
	return values.Encode()
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

var _ object.BucketHandle = (*Store)(nil)
