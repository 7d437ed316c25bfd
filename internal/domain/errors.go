package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateUser is returned when a user with the same email already exists.
var ErrDuplicateUser = errors.New("This user has already been registered")

// ValidationError reports invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RemoteFetchError reports a failed call to the remote profile API.
// StatusCode is zero for transport failures.
type RemoteFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("remote fetch %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// StoreError reports a failure of a backing store ("blob", "metadata", "registry").
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AvatarProcessingError wraps any failure while resolving a user's avatar.
type AvatarProcessingError struct {
	UserID string
	Err    error
}

func (e *AvatarProcessingError) Error() string {
	return fmt.Sprintf("process avatar for user %s: %v", e.UserID, e.Err)
}

func (e *AvatarProcessingError) Unwrap() error { return e.Err }

// AvatarDeletionError wraps any failure while deleting a user's avatar.
type AvatarDeletionError struct {
	UserID string
	Err    error
}

func (e *AvatarDeletionError) Error() string {
	return fmt.Sprintf("delete avatar for user %s: %v", e.UserID, e.Err)
}

func (e *AvatarDeletionError) Unwrap() error { return e.Err }
