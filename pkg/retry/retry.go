// Package retry runs an operation with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrContextCanceled is returned when the context ends while waiting between attempts.
var ErrContextCanceled = errors.New("context was canceled during retry")

// Config holds retry settings.
type Config struct {
	// MaxAttempts includes the first call. Values below 1 mean a single attempt.
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	BackoffFactor  float64       `mapstructure:"backoff_factor"`
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}
}

// Retrier executes operations with automatic retries.
type Retrier struct {
	name        string
	config      Config
	shouldRetry func(error) bool
	logger      zerolog.Logger
}

// New creates a Retrier. shouldRetry may be nil, in which case every error
// except context cancellation is retried.
func New(name string, cfg Config, shouldRetry func(error) bool, logger zerolog.Logger) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}
	return &Retrier{
		name:        name,
		config:      cfg,
		shouldRetry: shouldRetry,
		logger:      logger.With().Str("retry", name).Logger(),
	}
}

// DefaultShouldRetry retries everything except context cancellation and deadline errors.
func DefaultShouldRetry(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Do runs operation until it succeeds, returns a non-retryable error, or
// the attempt budget is spent. The last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var err error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err = operation(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info().Int("attempts", attempt).Msg("retry succeeded")
			}
			return nil
		}

		if !r.shouldRetry(err) {
			return err
		}

		if attempt == r.config.MaxAttempts {
			r.logger.Warn().Err(err).Int("attempts", attempt).Msg("retry max attempts reached")
			return err
		}

		r.logger.Debug().Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("retry attempt")

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffFactor)
		if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}

	return err
}
