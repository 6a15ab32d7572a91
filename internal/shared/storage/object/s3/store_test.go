package s3

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rec-admin-backend/internal/shared/storage/object"
)

type fakeAPI struct {
	puts    []*s3.PutObjectInput
	deletes []string
	putErr  error
	delErr  error
	pages   []*s3.ListObjectsV2Output
	listed  int
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listed >= len(f.pages) {
		return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}, nil
	}
	page := f.pages[f.listed]
	f.listed++
	return page, nil
}

func testConfig() aws.Config {
	return aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
}

func TestPutObjectSetsTaggingAndEncryption(t *testing.T) {
	api := &fakeAPI{}
	store := &Store{api: api, bucket: "images"}

	err := store.PutObject(context.Background(), object.PutInput{
		Key:         "images/REC1/a/original.webp",
		Body:        []byte("data"),
		ContentType: "image/webp",
		Tags:        map[string]string{"filename": "my photo.webp"},
	})
	require.NoError(t, err)
	require.Len(t, api.puts, 1)

	in := api.puts[0]
	assert.Equal(t, "images", aws.ToString(in.Bucket))
	assert.Equal(t, "image/webp", aws.ToString(in.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(in.ContentLength))
	assert.Equal(t, "filename=my+photo.webp", aws.ToString(in.Tagging))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, in.ServerSideEncryption)
}

func TestPutObjectUsesKMSWhenConfigured(t *testing.T) {
	api := &fakeAPI{}
	store := &Store{api: api, bucket: "images", kmsKeyID: "key-1"}

	require.NoError(t, store.PutObject(context.Background(), object.PutInput{Key: "k", Body: []byte("x")}))
	in := api.puts[0]
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, in.ServerSideEncryption)
	assert.Equal(t, "key-1", aws.ToString(in.SSEKMSKeyId))
	assert.Nil(t, in.Tagging)
}

func TestPutObjectWrapsError(t *testing.T) {
	boom := errors.New("access denied")
	store := &Store{api: &fakeAPI{putErr: boom}, bucket: "images"}

	err := store.PutObject(context.Background(), object.PutInput{Key: "a/b", Body: []byte("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, object.IsStorageError(err))
	assert.Contains(t, err.Error(), "bucket=images key=a/b")
}

func TestDeleteObjectTreatsMissingKeyAsDeleted(t *testing.T) {
	cases := []error{
		&s3types.NoSuchKey{},
		&smithy.GenericAPIError{Code: "NotFound", Message: "not found"},
	}
	for _, notFound := range cases {
		store := &Store{api: &fakeAPI{delErr: notFound}, bucket: "images"}
		assert.NoError(t, store.DeleteObject(context.Background(), "gone"))
	}
}

func TestDeleteObjectReturnsOtherErrors(t *testing.T) {
	denied := &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
	store := &Store{api: &fakeAPI{delErr: denied}, bucket: "images"}

	err := store.DeleteObject(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, object.IsStorageError(err))
}

func TestListObjectsFollowsPages(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{pages: []*s3.ListObjectsV2Output{
		{
			Contents: []s3types.Object{
				{Key: aws.String("images/REC1/a/original.webp"), Size: aws.Int64(10), LastModified: aws.Time(now)},
				{Key: aws.String("images/REC1/a/thm.webp"), Size: aws.Int64(2)},
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents:    []s3types.Object{{Key: aws.String("images/REC1/a/pre.webp"), Size: aws.Int64(5)}},
			IsTruncated: aws.Bool(false),
		},
	}}
	store := &Store{api: api, bucket: "images"}

	out, err := store.ListObjects(context.Background(), "images/REC1/a/")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "images/REC1/a/original.webp", out[0].Key)
	assert.Equal(t, int64(10), out[0].Size)
	assert.Equal(t, now, out[0].LastModified)
	assert.Equal(t, "images/REC1/a/pre.webp", out[2].Key)
}

func TestPresignPutSignsContentType(t *testing.T) {
	store := NewFromConfig(testConfig(), "images", Options{})

	raw, err := store.PresignPut(context.Background(), object.PresignPutInput{
		Key:         "images/REC1/a/original.webp",
		ContentType: "image/webp",
		Expires:     15 * time.Minute,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))

	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	assert.Contains(t, signed, "host")
	assert.Contains(t, signed, "content-type")
	assert.NotContains(t, signed, "content-length")
}

func TestPresignGetUsesPathStyleForCustomEndpoint(t *testing.T) {
	store := NewFromConfig(testConfig(), "documents", Options{Endpoint: "http://localhost:4566"})

	raw, err := store.PresignGet(context.Background(), "documents/REC1/a/original.pdf", time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "http://localhost:4566/documents/documents/REC1/a/original.pdf?"), raw)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "3600", parsed.Query().Get("X-Amz-Expires"))
}

func TestNewRejectsEmptyBucket(t *testing.T) {
	_, err := New(context.Background(), "  ", Options{Region: "us-east-1"})
	assert.ErrorIs(t, err, object.ErrInvalidArgument)
}

func TestEncodeTagsIsSorted(t *testing.T) {
	got := encodeTags(map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, "a=1&b=2", got)
	assert.Empty(t, encodeTags(nil))
}
