package cache

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

// AvatarCache stores avatar metadata records keyed by user ID.
type AvatarCache interface {
	Get(ctx context.Context, userID string) (*domain.AvatarRecord, error)
	// Fill stores record only when the key is unset. It reports whether the
	// record was stored.
	Fill(ctx context.Context, record *domain.AvatarRecord, ttl time.Duration) (bool, error)
	// Invalidate replaces the entry with a marker that makes Get miss and
	// Fill refuse for hold.
	Invalidate(ctx context.Context, userID string, hold time.Duration) error
	Close() error
}
