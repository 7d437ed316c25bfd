package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

const registryStore = "registry"

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByEmail retrieves users by email.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) ([]*domain.User, error) {
	var models []domain.UserModel
	result := r.db.WithContext(ctx).Where("email = ?", email).Find(&models)
	if result.Error != nil {
		return nil, &domain.StoreError{Store: registryStore, Op: "find_by_email", Err: result.Error}
	}

	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].ToDomain())
	}
	return users, nil
}

// Insert creates a new user.
func (r *GormUserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	created.ID = uuid.New().String()

	model := domain.UserToModel(&created)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return nil, r.handleError("insert", result.Error)
	}

	// Update the domain object with generated timestamps
	created.CreatedAt = model.CreatedAt
	created.UpdatedAt = model.UpdatedAt
	return &created, nil
}

// handleError converts database-specific errors to domain errors.
func (r *GormUserRepository) handleError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailExists
	}

	errStr := err.Error()

	// PostgreSQL / SQLite unique constraint violation
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		if strings.Contains(errStr, "email") {
			return ErrEmailExists
		}
	}

	// MySQL unique constraint violation
	if strings.Contains(errStr, "Duplicate entry") && strings.Contains(errStr, "email") {
		return ErrEmailExists
	}

	return &domain.StoreError{Store: registryStore, Op: op, Err: err}
}
