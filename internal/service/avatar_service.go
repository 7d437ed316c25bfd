package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-live/profile-service/internal/audit"
	"github.com/weiawesome/wes-io-live/profile-service/internal/blob"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/profile"
	"github.com/weiawesome/wes-io-live/profile-service/internal/repository"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/log"
)

// AvatarOptions tunes the avatar service.
type AvatarOptions struct {
	// ContentType is recorded when the payload type cannot be detected.
	ContentType string
	// ValidateImage rejects fetched payloads that do not decode as an image.
	ValidateImage bool
	// PopulateTimeout bounds a remote fetch shared by concurrent callers.
	PopulateTimeout time.Duration
}

const defaultPopulateTimeout = 30 * time.Second

// avatarServiceImpl implements AvatarService interface.
type avatarServiceImpl struct {
	blobs    blob.Store
	meta     repository.AvatarRepository
	profiles profile.Client
	opts     AvatarOptions
	sf       singleflight.Group
	audit    *audit.Logger
	logger   zerolog.Logger
}

// NewAvatarService creates a new avatar service.
func NewAvatarService(
	blobs blob.Store,
	meta repository.AvatarRepository,
	profiles profile.Client,
	opts AvatarOptions,
	logger zerolog.Logger,
) AvatarService {
	if opts.ContentType == "" {
		opts.ContentType = "image/jpeg"
	}
	if opts.PopulateTimeout <= 0 {
		opts.PopulateTimeout = defaultPopulateTimeout
	}
	logger = logger.With().Str(log.FieldComponent, "avatar_service").Logger()
	return &avatarServiceImpl{
		blobs:    blobs,
		meta:     meta,
		profiles: profiles,
		opts:     opts,
		audit:    audit.New(logger),
		logger:   logger,
	}
}

// GetAvatar serves the avatar from the blob store when the metadata and blob
// agree, and otherwise refetches it from the profile API.
func (s *avatarServiceImpl) GetAvatar(ctx context.Context, userID string) (string, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return "", err
	}

	data, err := s.getAvatar(ctx, userID)
	if err != nil {
		l := log.CtxOr(ctx, s.logger)
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get avatar")
		return "", &domain.AvatarProcessingError{UserID: userID, Err: err}
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (s *avatarServiceImpl) getAvatar(ctx context.Context, userID string) ([]byte, error) {
	l := log.CtxOr(ctx, s.logger)

	if err := s.blobs.EnsureReady(ctx); err != nil {
		return nil, err
	}

	record, err := s.meta.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		data, err := s.readCached(ctx, record)
		if err == nil {
			s.audit.LogWithDetail(ctx, audit.ActionAvatarCacheHit, userID, record.ContentHash, "avatar served from cache")
			return data, nil
		}
		if !errors.Is(err, blob.ErrNotFound) {
			return nil, err
		}
		l.Warn().
			Str(log.FieldUserID, userID).
			Str(log.FieldContentHash, record.ContentHash).
			Msg("avatar metadata points to missing blob, refetching")
	case errors.Is(err, repository.ErrAvatarNotFound):
	default:
		return nil, err
	}

	// Shared populates run detached from the caller that started them.
	ch := s.sf.DoChan(userID, func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PopulateTimeout)
		defer cancel()
		return s.populate(pctx, userID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		l.Debug().Str(log.FieldUserID, userID).Msg("avatar populate shared with concurrent request")
	}

	data, ok := res.Val.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return data, nil
}

// readCached returns the blob named by record, or blob.ErrNotFound when it is gone.
func (s *avatarServiceImpl) readCached(ctx context.Context, record *domain.AvatarRecord) ([]byte, error) {
	ok, err := s.blobs.Exists(ctx, record.ContentHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, blob.ErrNotFound
	}
	return s.blobs.Read(ctx, record.ContentHash)
}

// populate fetches the avatar remotely, writes the blob and then the metadata.
func (s *avatarServiceImpl) populate(ctx context.Context, userID string) ([]byte, error) {
	p, err := s.profiles.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Avatar == "" {
		return nil, &domain.RemoteFetchError{URL: userID, Err: errors.New("profile has no avatar url")}
	}

	data, err := s.profiles.FetchBytes(ctx, p.Avatar)
	if err != nil {
		return nil, err
	}
	if s.opts.ValidateImage {
		if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
			return nil, &domain.RemoteFetchError{URL: p.Avatar, Err: fmt.Errorf("payload is not an image: %w", err)}
		}
	}

	hash := blob.Hash(data)
	contentType := s.contentType(data)

	if err := s.blobs.Write(ctx, hash, data, contentType); err != nil {
		return nil, err
	}

	record := &domain.AvatarRecord{
		UserID:      userID,
		ContentHash: hash,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.meta.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.audit.LogWithDetail(ctx, audit.ActionAvatarFetch, userID, hash, "avatar fetched and cached")
	return data, nil
}

func (s *avatarServiceImpl) contentType(data []byte) string {
	if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return s.opts.ContentType
}

// DeleteAvatar removes the blob and the metadata record of a user. A blob
// still referenced by another user is kept.
func (s *avatarServiceImpl) DeleteAvatar(ctx context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	l := log.CtxOr(ctx, s.logger)

	record, err := s.meta.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAvatarNotFound) {
			l.Info().Str(log.FieldUserID, userID).Msg("no avatar to delete")
			return nil
		}
		return &domain.AvatarDeletionError{UserID: userID, Err: err}
	}

	if err := s.deleteBlob(ctx, record); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to delete avatar blob")
		return &domain.AvatarDeletionError{UserID: userID, Err: err}
	}

	if err := s.meta.DeleteByUserID(ctx, userID); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to delete avatar metadata")
		return &domain.AvatarDeletionError{UserID: userID, Err: err}
	}

	s.audit.LogWithDetail(ctx, audit.ActionAvatarDelete, userID, record.ContentHash, "avatar deleted")
	return nil
}

func (s *avatarServiceImpl) deleteBlob(ctx context.Context, record *domain.AvatarRecord) error {
	l := log.CtxOr(ctx, s.logger).With().
		Str(log.FieldUserID, record.UserID).
		Str(log.FieldContentHash, record.ContentHash).
		Logger()

	refs, err := s.meta.CountByHash(ctx, record.ContentHash)
	if err != nil {
		return err
	}
	if refs > 1 {
		l.Info().Int64("references", refs).Msg("avatar blob shared with other users, keeping it")
		return nil
	}

	ok, err := s.blobs.Exists(ctx, record.ContentHash)
	if err != nil {
		return err
	}
	if !ok {
		l.Warn().Msg("avatar blob already missing")
		return nil
	}
	return s.blobs.Delete(ctx, record.ContentHash)
}

// SweepOrphans deletes blobs that are older than minAge and referenced by no
// metadata record. Such blobs are left behind when the metadata write after
// a blob write fails. Per-blob failures are logged and the sweep continues.
func (s *avatarServiceImpl) SweepOrphans(ctx context.Context, minAge time.Duration) (int, error) {
	l := log.CtxOr(ctx, s.logger)

	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-minAge)
	deleted := 0
	var errs []error

	for _, b := range blobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if b.LastModified.After(cutoff) {
			continue
		}

		refs, err := s.meta.CountByHash(ctx, b.Hash)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if refs > 0 {
			continue
		}

		if err := s.blobs.Delete(ctx, b.Hash); err != nil {
			l.Warn().Err(err).Str(log.FieldBlobKey, b.Key).Msg("failed to delete orphan blob")
			errs = append(errs, err)
			continue
		}
		deleted++
		l.Debug().Str(log.FieldBlobKey, b.Key).Msg("orphan blob deleted")
	}

	if deleted > 0 {
		s.audit.LogWithDetail(ctx, audit.ActionAvatarSweep, "", strconv.Itoa(deleted), "orphan avatar blobs deleted")
	}
	return deleted, errors.Join(errs...)
}
