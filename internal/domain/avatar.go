package domain

import "time"

// AvatarRecord maps a user to the content hash of their cached avatar.
type AvatarRecord struct {
	UserID      string    `json:"user_id"`
	ContentHash string    `json:"content_hash"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
