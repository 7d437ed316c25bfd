package pubsub

// Topics published by the profile service. The topic doubles as the event type.
const (
	TopicUserCreated = "user.created"
)

// UserCreatedPayload is published after a user has been registered.
type UserCreatedPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
