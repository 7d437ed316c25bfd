// Package blob stores avatar bytes under content-addressed keys.
package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/storage"
)

const (
	storeName = "blob"
	extension = ".jpg"

	// DefaultPrefix is the key prefix used when none is configured.
	DefaultPrefix = "avatars/"
)

// ErrNotFound is returned by Read when no blob exists for the hash.
var ErrNotFound = errors.New("blob not found")

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Hash         string
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a content-addressed blob store.
type Store interface {
	EnsureReady(ctx context.Context) error
	Exists(ctx context.Context, hash string) (bool, error)
	Read(ctx context.Context, hash string) ([]byte, error)
	Write(ctx context.Context, hash string, data []byte, contentType string) error
	Delete(ctx context.Context, hash string) error
	List(ctx context.Context) ([]BlobInfo, error)
}

// Hash returns the lowercase hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StorageStore implements Store on top of a storage backend.
type StorageStore struct {
	backend storage.Storage
	prefix  string
}

// NewStorageStore creates a Store writing keys of the form <prefix><hash>.jpg.
func NewStorageStore(backend storage.Storage, prefix string) *StorageStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &StorageStore{backend: backend, prefix: prefix}
}

// Key returns the storage key for hash.
func (s *StorageStore) Key(hash string) string {
	return s.prefix + hash + extension
}

func (s *StorageStore) EnsureReady(ctx context.Context) error {
	if err := s.backend.EnsureReady(ctx); err != nil {
		return storeErr("ensure_ready", err)
	}
	return nil
}

func (s *StorageStore) Exists(ctx context.Context, hash string) (bool, error) {
	ok, err := s.backend.Exists(ctx, s.Key(hash))
	if err != nil {
		return false, storeErr("exists", err)
	}
	return ok, nil
}

func (s *StorageStore) Read(ctx context.Context, hash string) ([]byte, error) {
	rc, err := s.backend.Read(ctx, s.Key(hash))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storeErr("read", fmt.Errorf("%w: %s", ErrNotFound, hash))
		}
		return nil, storeErr("read", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, storeErr("read", err)
	}
	return data, nil
}

func (s *StorageStore) Write(ctx context.Context, hash string, data []byte, contentType string) error {
	if err := s.backend.Write(ctx, s.Key(hash), bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return storeErr("write", err)
	}
	return nil
}

func (s *StorageStore) Delete(ctx context.Context, hash string) error {
	if err := s.backend.Delete(ctx, s.Key(hash)); err != nil {
		return storeErr("delete", err)
	}
	return nil
}

// List returns every blob under the prefix. Keys that do not follow the
// <prefix><hash>.jpg layout are skipped.
func (s *StorageStore) List(ctx context.Context) ([]BlobInfo, error) {
	objects, err := s.backend.List(ctx, s.prefix)
	if err != nil {
		return nil, storeErr("list", err)
	}

	blobs := make([]BlobInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if !strings.HasSuffix(name, extension) || strings.Contains(name, "/") {
			continue
		}
		hash := strings.TrimSuffix(name, extension)
		if !isHexDigest(hash) {
			continue
		}
		blobs = append(blobs, BlobInfo{
			Hash:         hash,
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return blobs, nil
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && strings.ToLower(s) == s
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Store: storeName, Op: op, Err: err}
}
