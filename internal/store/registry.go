package store

import (
	"context"
	"time"
)

// ModelRegistry addresses the single published bundle in the object store:
// one bucket, one well-known key, overwrite-on-publish. Every call is
// bounded by the configured timeout since the underlying service gives no
// deadline of its own.
type ModelRegistry struct {
	store   ObjectStore
	bucket  string
	key     string
	timeout time.Duration
}

// NewModelRegistry creates a registry over store for bucket/key.
func NewModelRegistry(store ObjectStore, bucket, key string, timeout time.Duration) *ModelRegistry {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ModelRegistry{store: store, bucket: bucket, key: key, timeout: timeout}
}

// Bucket returns the registry's bucket name.
func (r *ModelRegistry) Bucket() string { return r.bucket }

// Key returns the registry's object key.
func (r *ModelRegistry) Key() string { return r.key }

// Save publishes bundle bytes, creating the bucket if needed. A later Save
// overwrites the previous bundle.
func (r *ModelRegistry) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.EnsureBucket(ctx, r.bucket); err != nil {
		return err
	}
	return r.store.PutObject(ctx, r.bucket, r.key, data)
}

// Load fetches the currently published bundle bytes.
func (r *ModelRegistry) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.GetObject(ctx, r.bucket, r.key)
}
