package object

import (
	"context"
	"time"
)

// Observer receives one call per storage operation.
type Observer interface {
	ObserveStorageOp(op, bucket string, err error, dur time.Duration)
}

type instrumented struct {
	next BucketHandle
	obs  Observer
}

// Instrument wraps h so every operation is reported to obs.
func Instrument(h BucketHandle, obs Observer) BucketHandle {
	if obs == nil {
		return h
	}
	return &instrumented{next: h, obs: obs}
}

func (i *instrumented) Bucket() string { return i.next.Bucket() }

func (i *instrumented) PutObject(ctx context.Context, in PutInput) error {
	start := time.Now()
	err := i.next.PutObject(ctx, in)
	i.obs.ObserveStorageOp("put", i.next.Bucket(), err, time.Since(start))
	return err
}

func (i *instrumented) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.DeleteObject(ctx, key)
	i.obs.ObserveStorageOp("delete", i.next.Bucket(), err, time.Since(start))
	return err
}

func (i *instrumented) ListObjects(ctx context.Context, prefix string) ([]Summary, error) {
	start := time.Now()
	out, err := i.next.ListObjects(ctx, prefix)
	i.obs.ObserveStorageOp("list", i.next.Bucket(), err, time.Since(start))
	return out, err
}

func (i *instrumented) PresignPut(ctx context.Context, in PresignPutInput) (string, error) {
	start := time.Now()
	out, err := i.next.PresignPut(ctx, in)
	i.obs.ObserveStorageOp("presign_put", i.next.Bucket(), err, time.Since(start))
	return out, err
}

func (i *instrumented) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	start := time.Now()
	out, err := i.next.PresignGet(ctx, key, expires)
	i.obs.ObserveStorageOp("presign_get", i.next.Bucket(), err, time.Since(start))
	return out, err
}
