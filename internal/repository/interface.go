package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrAvatarNotFound = errors.New("avatar not found")
)

// UserRepository is the registry of created users.
type UserRepository interface {
	// FindByEmail returns every user registered under email. An empty slice means none.
	FindByEmail(ctx context.Context, email string) ([]*domain.User, error)
	// Insert assigns an ID and persists the user. A unique violation on email
	// returns ErrEmailExists.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
}

// AvatarRepository maps user IDs to cached avatar content hashes.
type AvatarRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.AvatarRecord, error)
	// Upsert inserts or replaces the record for record.UserID atomically.
	Upsert(ctx context.Context, record *domain.AvatarRecord) error
	// DeleteByUserID removes the record. A missing record is not an error.
	DeleteByUserID(ctx context.Context, userID string) error
	// CountByHash returns how many records reference the content hash.
	CountByHash(ctx context.Context, hash string) (int64, error)
}
