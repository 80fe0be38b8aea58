package blobstore

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttled limits the number of concurrent operations and the byte rate
// of an inner store. Zero limits disable the corresponding check.
type Throttled struct {
	inner   BlobStore
	sem     *semaphore.Weighted // nil if unlimited
	limiter *rate.Limiter       // nil if unlimited
}

// NewThrottled wraps inner. maxConcurrent bounds in-flight operations and
// bytesPerSec bounds the payload throughput of Put and Get.
func NewThrottled(inner BlobStore, maxConcurrent int64, bytesPerSec int) *Throttled {
	t := &Throttled{inner: inner}
	if maxConcurrent > 0 {
		t.sem = semaphore.NewWeighted(maxConcurrent)
	}
	if bytesPerSec > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
	return t
}

// Put waits for a slot and for len(data) bytes of budget before writing.
func (t *Throttled) Put(ctx context.Context, name string, data []byte) error {
	release, err := t.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := t.waitBytes(ctx, len(data)); err != nil {
		return err
	}
	return t.inner.Put(ctx, name, data)
}

// Get reads and then charges the blob size against the byte budget.
func (t *Throttled) Get(ctx context.Context, name string) ([]byte, error) {
	release, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := t.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := t.waitBytes(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (t *Throttled) Delete(ctx context.Context, name string) error {
	release, err := t.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return t.inner.Delete(ctx, name)
}

func (t *Throttled) List(ctx context.Context, prefix string) ([]string, error) {
	release, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return t.inner.List(ctx, prefix)
}

func (t *Throttled) acquire(ctx context.Context) (func(), error) {
	if t.sem == nil {
		return func() {}, ctx.Err()
	}
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { t.sem.Release(1) }, nil
}

// waitBytes charges n bytes in chunks no larger than the burst, since
// WaitN rejects requests above it.
func (t *Throttled) waitBytes(ctx context.Context, n int) error {
	if t.limiter == nil {
		return nil
	}
	burst := t.limiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := t.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
