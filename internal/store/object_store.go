// Package store provides the remote model store: a bucket-like byte-blob
// service holding the published model bundle.
package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// ObjectStore abstracts the minimal bucket operations the model registry
// needs. Exactly one client per process should exist; it is injected, not
// reached through ambient singletons.
type ObjectStore interface {
	Ping(ctx context.Context) error
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// LocalStore persists objects on disk to mimic bucket behaviour for tests
// and local development.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local object store rooted at dir.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "vehicleml-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &LocalStore{root: root}
}

func (s *LocalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(s.root, 0o755)
}

func (s *LocalStore) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" {
		return mlerr.Newf(mlerr.CodeStore, "bucket name is required")
	}
	return os.MkdirAll(filepath.Join(s.root, bucket), 0o755)
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" || key == "" {
		return mlerr.Newf(mlerr.CodeStore, "bucket and key are required")
	}
	if err := s.EnsureBucket(ctx, bucket); err != nil {
		return err
	}
	fullPath := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return mlerr.New(mlerr.CodeStore, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return mlerr.New(mlerr.CodeStore, err)
	}
	return nil
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bucket == "" || key == "" {
		return nil, mlerr.Newf(mlerr.CodeStore, "bucket and key are required")
	}
	data, err := os.ReadFile(filepath.Join(s.root, bucket, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mlerr.New(mlerr.CodeStore, err)
		}
		return nil, mlerr.New(mlerr.CodeSourceUnavailable, err)
	}
	return data, nil
}
