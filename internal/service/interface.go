package service

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

// UserService defines the interface for user business logic.
type UserService interface {
	// CreateUser registers a user. Mail and event notification are best effort.
	CreateUser(ctx context.Context, name, email string) (*domain.User, error)
	// GetUserByID returns the remote profile of a user.
	GetUserByID(ctx context.Context, userID string) (*domain.Profile, error)
}

// AvatarService defines the interface for the avatar cache.
type AvatarService interface {
	// GetAvatar returns the base64 encoded avatar, populating the cache on a miss.
	GetAvatar(ctx context.Context, userID string) (string, error)
	// DeleteAvatar removes the cached avatar. Deleting a missing avatar succeeds.
	DeleteAvatar(ctx context.Context, userID string) error
	// SweepOrphans deletes blobs older than minAge that no record references.
	SweepOrphans(ctx context.Context, minAge time.Duration) (int, error)
}
