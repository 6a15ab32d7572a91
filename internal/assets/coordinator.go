package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rec-admin-backend/internal/shared/metrics"
	"rec-admin-backend/internal/shared/storage/object"
	"rec-admin-backend/internal/shared/telemetry"
)

// Coordinator writes and removes the variants of one asset as a unit.
//
// Uploads run one at a time in input order. When one fails, the variants
// written before it are deleted again so the asset prefix ends up holding
// either every variant or none of them. A delete that fails during that
// cleanup leaves an orphan; it is logged and counted but never replaces the
// upload error.
//
// Resolve, when set, is asked for the bucket handle on every operation so a
// registry cache clear reaches running coordinators. Bucket is used otherwise.
type Coordinator struct {
	Bucket   object.BucketHandle
	Resolve  func() (object.BucketHandle, error)
	Variants VariantSet
	Metrics  *metrics.Metrics
}

// rollbackTimeout bounds compensation, which runs detached from the caller's
// cancellation.
const rollbackTimeout = 30 * time.Second

var errNoBucket = errors.New("coordinator has no bucket")

func (c *Coordinator) handle() (object.BucketHandle, error) {
	if c.Resolve != nil {
		return c.Resolve()
	}
	if c.Bucket == nil {
		return nil, errNoBucket
	}
	return c.Bucket, nil
}

// UploadVariant writes a single variant and returns its key. Storage errors
// are returned unchanged.
func (c *Coordinator) UploadVariant(ctx context.Context, ownerID, assetID string, v VariantSpec) (string, error) {
	key, err := VariantKey(c.Variants.Category, ownerID, assetID, v.Code, c.Variants.Ext)
	if err != nil {
		return "", err
	}

	bucket, err := c.handle()
	if err != nil {
		return key, err
	}
	err = bucket.PutObject(ctx, object.PutInput{
		Key:         key,
		Body:        v.Body,
		ContentType: c.Variants.ContentType,
		Tags:        v.Metadata,
	})
	c.Metrics.ObserveVariantUpload(string(c.Variants.Category), err)
	if err != nil {
		return key, err
	}
	return key, nil
}

// UploadVariants writes variants in order. On the first failure it rolls back
// the variants already written and returns a *VariantUploadError wrapping the
// original storage error.
func (c *Coordinator) UploadVariants(ctx context.Context, ownerID, assetID string, variants []VariantSpec) ([]UploadedVariant, error) {
	if err := c.validateBatch(ownerID, assetID, variants); err != nil {
		return nil, err
	}

	uploaded := make([]UploadedVariant, 0, len(variants))
	for _, v := range variants {
		key, err := c.UploadVariant(ctx, ownerID, assetID, v)
		if err != nil {
			keys := make([]string, len(uploaded))
			for i, u := range uploaded {
				keys[i] = u.Key
			}
			c.Rollback(ctx, keys)
			return nil, &VariantUploadError{Code: v.Code, Key: key, Err: err}
		}
		uploaded = append(uploaded, UploadedVariant{Code: v.Code, Key: key})
	}
	return uploaded, nil
}

// Rollback deletes keys in reverse order. Every key is attempted even when an
// earlier delete fails. Failures are logged, counted and returned to the
// caller for inspection; they are never raised.
//
// The deletes keep ctx's values but not its cancellation, so a request that
// timed out mid-upload still gets cleaned up within rollbackTimeout.
func (c *Coordinator) Rollback(ctx context.Context, keys []string) []error {
	if len(keys) == 0 {
		return nil
	}
	category := string(c.Variants.Category)
	c.Metrics.IncRollback(category)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	bucket, resolveErr := c.handle()
	bucketName := ""
	if resolveErr == nil {
		bucketName = bucket.Bucket()
	}

	var failures []error
	for i := len(keys) - 1; i >= 0; i-- {
		err := resolveErr
		if err == nil {
			err = bucket.DeleteObject(ctx, keys[i])
		}
		if err != nil {
			c.Metrics.IncRollbackFailure(category)
			telemetry.Error("assets.rollback.failed", map[string]any{
				"bucket": bucketName,
				"key":    keys[i],
				"error":  err,
			})
			failures = append(failures, err)
		}
	}

	telemetry.Warn("assets.rollback", map[string]any{
		"bucket":   bucketName,
		"category": category,
		"deleted":  len(keys) - len(failures),
		"orphaned": len(failures),
	})
	return failures
}

// DeleteVariants removes every object under the asset's prefix. An empty
// prefix is a successful no-op. The first delete failure is returned.
func (c *Coordinator) DeleteVariants(ctx context.Context, ownerID, assetID string) error {
	prefix, err := AssetPrefix(c.Variants.Category, ownerID, assetID)
	if err != nil {
		return err
	}

	bucket, err := c.handle()
	if err != nil {
		return err
	}
	objects, err := bucket.ListObjects(ctx, prefix)
	if err != nil {
		return err
	}
	for _, o := range objects {
		if err := bucket.DeleteObject(ctx, o.Key); err != nil {
			return err
		}
	}

	if len(objects) > 0 {
		telemetry.Info("assets.variants.deleted", map[string]any{
			"bucket": bucket.Bucket(),
			"prefix": prefix,
			"count":  len(objects),
		})
	}
	return nil
}

func (c *Coordinator) validateBatch(ownerID, assetID string, variants []VariantSpec) error {
	if len(variants) == 0 {
		return fmt.Errorf("%w: at least one variant is required", ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, dup := seen[v.Code]; dup {
			return fmt.Errorf("%w: duplicate variant code %q", ErrInvalidArgument, v.Code)
		}
		seen[v.Code] = struct{}{}
		if _, err := VariantKey(c.Variants.Category, ownerID, assetID, v.Code, c.Variants.Ext); err != nil {
			return err
		}
	}
	return nil
}
