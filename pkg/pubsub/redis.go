package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis PUBLISH. The topic is used
// as the channel name.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis-based Publisher.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: client}, nil
}

// Publish publishes an event to the channel named after topic.
func (r *RedisPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
