// Package storage keeps user avatars in object storage. Two backends
// are supported: MinIO (self-hosted/dev) and Google Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/inkwell-social/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AvatarStore wraps an ObjectStorage backend with avatar semantics.
type AvatarStore struct {
	backend ObjectStorage
}

// NewAvatarStore constructs an AvatarStore over the provided backend.
func NewAvatarStore(backend ObjectStorage) *AvatarStore {
	return &AvatarStore{backend: backend}
}

// NewFromConfig constructs an AvatarStore for the configured backend.
// A nil store (empty backend) disables avatars.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*AvatarStore, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewAvatarStore(backend), nil
	case "gcs":
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewAvatarStore(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Key returns the canonical object key for a user's avatar.
func (s *AvatarStore) Key(userID int) string {
	return fmt.Sprintf("avatars/%d", userID)
}

// EnsureBucket ensures the configured bucket exists.
func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put stores a user's avatar image.
func (s *AvatarStore) Put(ctx context.Context, userID int, r io.Reader, size int64, contentType string) (string, error) {
	key := s.Key(userID)
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Get opens a reader for a stored avatar.
func (s *AvatarStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes a stored avatar.
func (s *AvatarStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
