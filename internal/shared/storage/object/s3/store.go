package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"rec-admin-backend/internal/shared/storage/object"
)

// serviceAPI is the subset of the S3 client used by Store.
type serviceAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures how the S3 client for one bucket is built.
type Options struct {
	Region string
	// Endpoint overrides the service endpoint, e.g. a LocalStack URL. Path-style
	// addressing is enabled whenever it is set.
	Endpoint string
	KMSKeyID string
}

// Store implements object.BucketHandle on Amazon S3.
type Store struct {
	api      serviceAPI
	presign  presignAPI
	bucket   string
	kmsKeyID string
}

// New creates a new S3-backed handle for bucket.
func New(ctx context.Context, bucket string, opts Options) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, object.ErrBucketNameRequired
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewFromConfig(cfg, bucket, opts), nil
}

// NewFromConfig builds a Store from an already-loaded AWS config.
func NewFromConfig(cfg aws.Config, bucket string, opts Options) *Store {
	endpoint := strings.TrimSpace(opts.Endpoint)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{
		api:      client,
		presign:  s3.NewPresignClient(client),
		bucket:   bucket,
		kmsKeyID: strings.TrimSpace(opts.KMSKeyID),
	}
}

// Bucket returns the bucket this handle is bound to.
func (s *Store) Bucket() string { return s.bucket }

// PutObject uploads in.Body under in.Key with optional object tags.
func (s *Store) PutObject(ctx context.Context, in object.PutInput) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(in.Key),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if tagging := encodeTags(in.Tags); tagging != "" {
		input.Tagging = aws.String(tagging)
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return &object.StorageError{Op: "s3 put object", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	return nil
}

// DeleteObject removes key. A missing key is treated as already deleted.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return &object.StorageError{Op: "s3 delete object", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

// ListObjects returns every object whose key starts with prefix.
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]object.Summary, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	var out []object.Summary
	paginator := s3.NewListObjectsV2Paginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &object.StorageError{Op: "s3 list objects", Bucket: s.bucket, Key: prefix, Err: err}
		}
		for _, o := range page.Contents {
			if o.Key == nil {
				continue
			}
			out = append(out, object.Summary{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return out, nil
}

// PresignPut issues a time-limited URL authorizing one PUT to in.Key. The
// content type and tags are signed, so the uploader must send matching headers.
func (s *Store) PresignPut(ctx context.Context, in object.PresignPutInput) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(in.Key),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if tagging := encodeTags(in.Tags); tagging != "" {
		input.Tagging = aws.String(tagging)
	}

	out, err := s.presign.PresignPutObject(ctx, input, withExpiry(in.Expires))
	if err != nil {
		return "", &object.StorageError{Op: "s3 presign put", Bucket: s.bucket, Key: in.Key, Err: err}
	}
	return out.URL, nil
}

// PresignGet issues a time-limited download URL for key.
func (s *Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	out, err := s.presign.PresignGetObject(ctx, input, withExpiry(expires))
	if err != nil {
		return "", &object.StorageError{Op: "s3 presign get", Bucket: s.bucket, Key: key, Err: err}
	}
	return out.URL, nil
}

func withExpiry(expires time.Duration) func(*s3.PresignOptions) {
	return func(opts *s3.PresignOptions) {
		if expires > 0 {
			opts.Expires = expires
		}
	}
}

// encodeTags renders tags in the URL-query form S3 expects for x-amz-tagging.
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

// isNotFound reports whether err is S3's "no such key". Some emulators return
// a bare NotFound code instead.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

var _ object.BucketHandle = (*Store)(nil)
