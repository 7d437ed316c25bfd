package domain

import (
	"time"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AvatarModel is the GORM model for avatars table. One row per user.
type AvatarModel struct {
	UserID      string    `gorm:"type:varchar(64);primaryKey"`
	ContentHash string    `gorm:"type:char(64);index;not null"`
	ContentType string    `gorm:"type:varchar(100);not null"`
	Size        int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for AvatarModel.
func (AvatarModel) TableName() string {
	return "avatars"
}

// ToDomain converts AvatarModel to domain AvatarRecord.
func (m *AvatarModel) ToDomain() *AvatarRecord {
	return &AvatarRecord{
		UserID:      m.UserID,
		ContentHash: m.ContentHash,
		ContentType: m.ContentType,
		Size:        m.Size,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// AvatarToModel converts domain AvatarRecord to AvatarModel.
func AvatarToModel(r *AvatarRecord) *AvatarModel {
	return &AvatarModel{
		UserID:      r.UserID,
		ContentHash: r.ContentHash,
		ContentType: r.ContentType,
		Size:        r.Size,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
