package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Read when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo represents metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage defines the interface for object storage operations.
// Keys always use forward slashes regardless of backend.
type Storage interface {
	// EnsureReady makes sure the storage location exists. It is idempotent.
	EnsureReady(ctx context.Context) error

	// Write stores content from the reader with the given key, replacing any
	// existing object atomically. size is the expected content size (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key. The caller closes the ReadCloser.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object with the given key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns information about all objects with keys starting with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Exists checks if an object with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Type  string      `mapstructure:"type"` // "local", "s3"
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// New creates the backend named by cfg.Type. Unknown types fall back to local storage.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return NewLocalStorage(cfg.Local)
	}
}
