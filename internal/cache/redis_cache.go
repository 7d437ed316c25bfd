package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/profile-service/internal/config"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// tombstone marks a key whose record was just written or deleted.
const tombstone = "invalidated"

type RedisAvatarCache struct {
	client *redis.Client
	prefix string
}

func NewRedisAvatarCache(cfg config.RedisConfig, prefix string) (*RedisAvatarCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisAvatarCacheWithClient(client, prefix), nil
}

// NewRedisAvatarCacheWithClient wraps an existing client. Close closes the client.
func NewRedisAvatarCacheWithClient(client *redis.Client, prefix string) *RedisAvatarCache {
	return &RedisAvatarCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisAvatarCache) buildKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", c.prefix, userID)
}

func (c *RedisAvatarCache) Get(ctx context.Context, userID string) (*domain.AvatarRecord, error) {
	data, err := c.client.Get(ctx, c.buildKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if string(data) == tombstone {
		return nil, ErrCacheMiss
	}

	var record domain.AvatarRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &record, nil
}

func (c *RedisAvatarCache) Fill(ctx context.Context, record *domain.AvatarRecord, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache data: %w", err)
	}

	stored, err := c.client.SetNX(ctx, c.buildKey(record.UserID), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set in redis: %w", err)
	}

	return stored, nil
}

func (c *RedisAvatarCache) Invalidate(ctx context.Context, userID string, hold time.Duration) error {
	if hold <= 0 {
		if err := c.client.Del(ctx, c.buildKey(userID)).Err(); err != nil {
			return fmt.Errorf("failed to delete from redis: %w", err)
		}
		return nil
	}

	if err := c.client.Set(ctx, c.buildKey(userID), tombstone, hold).Err(); err != nil {
		return fmt.Errorf("failed to invalidate in redis: %w", err)
	}

	return nil
}

func (c *RedisAvatarCache) Close() error {
	return c.client.Close()
}
