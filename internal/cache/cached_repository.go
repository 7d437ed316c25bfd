package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/repository"
	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
)

const defaultInvalidateHold = 5 * time.Second

// CachedAvatarRepository is a read-through cache in front of an
// AvatarRepository. Cache failures are logged and the backing store is used.
//
// Writes leave a marker in the cache for hold. A read that loaded a record
// before the write cannot fill the cache with it while the marker stands.
type CachedAvatarRepository struct {
	repo   repository.AvatarRepository
	cache  AvatarCache
	ttl    time.Duration
	hold   time.Duration
	logger zerolog.Logger
}

// NewCachedAvatarRepository wraps repo with cache.
func NewCachedAvatarRepository(repo repository.AvatarRepository, cache AvatarCache, ttl, hold time.Duration, logger zerolog.Logger) *CachedAvatarRepository {
	if hold <= 0 {
		hold = defaultInvalidateHold
	}
	return &CachedAvatarRepository{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		hold:   hold,
		logger: logger.With().Str(pkglog.FieldComponent, "avatar_cache").Logger(),
	}
}

func (r *CachedAvatarRepository) GetByUserID(ctx context.Context, userID string) (*domain.AvatarRecord, error) {
	l := pkglog.CtxOr(ctx, r.logger)

	record, err := r.cache.Get(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("avatar cache get failed")
	}

	record, err = r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := r.cache.Fill(ctx, record, r.ttl)
	if err != nil {
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("avatar cache fill failed")
	} else if !stored {
		l.Debug().Str(pkglog.FieldUserID, userID).Msg("avatar cache fill skipped")
	}
	return record, nil
}

func (r *CachedAvatarRepository) Upsert(ctx context.Context, record *domain.AvatarRecord) error {
	if err := r.repo.Upsert(ctx, record); err != nil {
		return err
	}
	r.invalidate(ctx, record.UserID)
	return nil
}

func (r *CachedAvatarRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if err := r.repo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *CachedAvatarRepository) CountByHash(ctx context.Context, hash string) (int64, error) {
	return r.repo.CountByHash(ctx, hash)
}

func (r *CachedAvatarRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Invalidate(ctx, userID, r.hold); err != nil {
		l := pkglog.CtxOr(ctx, r.logger)
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("avatar cache invalidate failed")
	}
}
