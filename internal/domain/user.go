package domain

import (
	"time"
)

// User is a registered user.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is a user profile as served by the remote profile API.
type Profile struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// CreateUserRequest represents a user registration request.
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// AvatarResponse carries a base64 encoded avatar.
type AvatarResponse struct {
	Avatar string `json:"avatar"`
}
