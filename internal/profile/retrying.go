package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/retry"
)

// RetryingClient retries transient failures of the wrapped Client.
type RetryingClient struct {
	next    Client
	retrier *retry.Retrier
}

// NewRetryingClient wraps next with bounded retries.
func NewRetryingClient(next Client, cfg retry.Config, logger zerolog.Logger) *RetryingClient {
	return &RetryingClient{
		next:    next,
		retrier: retry.New("profile_client", cfg, shouldRetry, logger),
	}
}

// shouldRetry retries transport failures and 5xx, 408 and 429 responses.
func shouldRetry(err error) bool {
	if !retry.DefaultShouldRetry(err) || errors.Is(err, ErrTooLarge) {
		return false
	}

	var rErr *domain.RemoteFetchError
	if errors.As(err, &rErr) && rErr.StatusCode != 0 {
		switch {
		case rErr.StatusCode == http.StatusRequestTimeout, rErr.StatusCode == http.StatusTooManyRequests:
			return true
		case rErr.StatusCode >= 400 && rErr.StatusCode < 500:
			return false
		}
	}
	return true
}

func (c *RetryingClient) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p *domain.Profile
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = c.next.FetchProfile(ctx, userID)
		return err
	})
	return p, err
}

func (c *RetryingClient) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.next.FetchBytes(ctx, rawURL)
		return err
	})
	return data, err
}
