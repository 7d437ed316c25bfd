package pubsub

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers           string `mapstructure:"brokers"`
	Partitions        int    `mapstructure:"partitions"`
	ReplicationFactor int    `mapstructure:"replication_factor"`
}

// Config holds the configuration for the event bus.
type Config struct {
	Driver string      `mapstructure:"driver"` // "redis", "kafka"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Driver: "redis",
		Redis: RedisConfig{
			Address:      "localhost:6379",
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:           "localhost:9092",
			Partitions:        4,
			ReplicationFactor: 1,
		},
	}
}

// NewPublisher creates a Publisher for the configured driver. The topics are
// created up front on drivers that need it.
func NewPublisher(cfg Config, topics []string, logger zerolog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka, topics, logger)
	case "redis", "":
		return NewRedisPublisher(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %s", cfg.Driver)
	}
}
