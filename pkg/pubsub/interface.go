package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType, key string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Key:       key,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	// Publish sends the event to topic. Events sharing a key keep their
	// relative order on drivers that support partitioning.
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
