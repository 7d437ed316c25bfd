package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

const metadataStore = "metadata"

// GormAvatarRepository implements AvatarRepository using GORM.
type GormAvatarRepository struct {
	db *gorm.DB
}

// NewGormAvatarRepository creates a new GORM-based avatar metadata repository.
func NewGormAvatarRepository(db *gorm.DB) *GormAvatarRepository {
	return &GormAvatarRepository{db: db}
}

// GetByUserID retrieves the avatar record of a user.
func (r *GormAvatarRepository) GetByUserID(ctx context.Context, userID string) (*domain.AvatarRecord, error) {
	var model domain.AvatarModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, &domain.StoreError{Store: metadataStore, Op: "get", Err: result.Error}
	}
	return model.ToDomain(), nil
}

// Upsert inserts the record or replaces hash, type and size of the existing one.
func (r *GormAvatarRepository) Upsert(ctx context.Context, record *domain.AvatarRecord) error {
	model := domain.AvatarToModel(record)
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	var stored domain.AvatarModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_hash", "content_type", "size", "updated_at"}),
		}).Create(model).Error; err != nil {
			return err
		}
		// created_at is kept on conflict, so read back what the row holds.
		return tx.First(&stored, "user_id = ?", model.UserID).Error
	})
	if err != nil {
		return &domain.StoreError{Store: metadataStore, Op: "upsert", Err: err}
	}

	record.CreatedAt = stored.CreatedAt
	record.UpdatedAt = stored.UpdatedAt
	return nil
}

// DeleteByUserID removes the avatar record of a user.
func (r *GormAvatarRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Delete(&domain.AvatarModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return &domain.StoreError{Store: metadataStore, Op: "delete", Err: result.Error}
	}
	return nil
}

// CountByHash counts the records that reference hash.
func (r *GormAvatarRepository) CountByHash(ctx context.Context, hash string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.AvatarModel{}).Where("content_hash = ?", hash).Count(&count)
	if result.Error != nil {
		return 0, &domain.StoreError{Store: metadataStore, Op: "count", Err: result.Error}
	}
	return count, nil
}
