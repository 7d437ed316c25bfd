package blob

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/pkg/retry"
)

// RetryingStore retries transient failures of the wrapped Store.
// A missing blob is final and never retried.
type RetryingStore struct {
	next    Store
	retrier *retry.Retrier
}

// NewRetryingStore wraps next with bounded retries.
func NewRetryingStore(next Store, cfg retry.Config, logger zerolog.Logger) *RetryingStore {
	return &RetryingStore{
		next:    next,
		retrier: retry.New("blob_store", cfg, shouldRetry, logger),
	}
}

func shouldRetry(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	return retry.DefaultShouldRetry(err)
}

func (s *RetryingStore) EnsureReady(ctx context.Context) error {
	return s.retrier.Do(ctx, s.next.EnsureReady)
}

func (s *RetryingStore) Exists(ctx context.Context, hash string) (bool, error) {
	var ok bool
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.next.Exists(ctx, hash)
		return err
	})
	return ok, err
}

func (s *RetryingStore) Read(ctx context.Context, hash string) ([]byte, error) {
	var data []byte
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.next.Read(ctx, hash)
		return err
	})
	return data, err
}

func (s *RetryingStore) Write(ctx context.Context, hash string, data []byte, contentType string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.next.Write(ctx, hash, data, contentType)
	})
}

func (s *RetryingStore) Delete(ctx context.Context, hash string) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.next.Delete(ctx, hash)
	})
}

func (s *RetryingStore) List(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		blobs, err = s.next.List(ctx)
		return err
	})
	return blobs, err
}
