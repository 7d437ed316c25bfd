package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/profile-service/pkg/config"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/database"
	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/retry"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/storage"
)

type Config struct {
	Server     ServerConfig
	Database   database.Config
	Redis      RedisConfig
	Cache      CacheConfig
	Storage    storage.Config
	Avatar     AvatarConfig
	ProfileAPI ProfileAPIConfig `mapstructure:"profile_api"`
	Retry      retry.Config
	Mail       MailConfig
	PubSub     pubsub.Config `mapstructure:"pubsub"`
	Log        pkglog.Config
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the avatar metadata read-through cache.
type CacheConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Prefix         string        `mapstructure:"prefix"`
	TTL            time.Duration `mapstructure:"ttl"`
	InvalidateHold time.Duration `mapstructure:"invalidate_hold"` // window in which fills are refused after a write
}

type AvatarConfig struct {
	KeyPrefix       string        `mapstructure:"key_prefix"`
	ContentType     string        `mapstructure:"content_type"`
	ValidateImage   bool          `mapstructure:"validate_image"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"` // 0 disables the sweeper
	SweepMinAge     time.Duration `mapstructure:"sweep_min_age"`
	PopulateTimeout time.Duration `mapstructure:"populate_timeout"`
}

type ProfileAPIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type MailConfig struct {
	Driver   string        `mapstructure:"driver"` // "smtp", "log"
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             3000,
	"server.shutdown_timeout": "10s",

	"database.driver":            "postgres",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "profile_service",
	"database.sslmode":           "disable",
	"database.file_path":         "./data/profile.db",
	"database.max_idle_conns":    10,
	"database.max_open_conns":    100,
	"database.conn_max_lifetime": 60,
	"database.slow_threshold":    "200ms",

	"redis.address":  "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"cache.enabled":         true,
	"cache.prefix":          "avatar",
	"cache.ttl":             "5m",
	"cache.invalidate_hold": "5s",

	"storage.type":              "local",
	"storage.local.base_path":   "./uploads",
	"storage.s3.region":         "us-east-1",
	"storage.s3.bucket":         "avatars",
	"storage.s3.use_path_style": false,

	"avatar.key_prefix":       "avatars/",
	"avatar.content_type":     "image/jpeg",
	"avatar.validate_image":   true,
	"avatar.sweep_interval":   "1h",
	"avatar.sweep_min_age":    "10m",
	"avatar.populate_timeout": "30s",

	"profile_api.base_url":        "https://reqres.in/api",
	"profile_api.timeout":         "5s",
	"profile_api.max_image_bytes": 5 << 20,

	"retry.max_attempts":    3,
	"retry.initial_backoff": "100ms",
	"retry.max_backoff":     "1s",
	"retry.backoff_factor":  2.0,

	"mail.driver":  "log",
	"mail.host":    "localhost",
	"mail.port":    587,
	"mail.from":    "no-reply@wes-io-live.local",
	"mail.timeout": "10s",

	"pubsub.driver":                   "redis",
	"pubsub.redis.address":            "localhost:6379",
	"pubsub.redis.pool_size":          10,
	"pubsub.redis.read_timeout":       "3s",
	"pubsub.redis.write_timeout":      "3s",
	"pubsub.kafka.brokers":            "localhost:9092",
	"pubsub.kafka.partitions":         4,
	"pubsub.kafka.replication_factor": 1,

	"log.level":        "info",
	"log.pretty":       false,
	"log.service_name": "profile-service",
}

var envBindings = map[string]string{
	"server.port":                  "PORT",
	"database.driver":              "DB_DRIVER",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"database.file_path":           "DB_FILE_PATH",
	"redis.address":                "REDIS_ADDRESS",
	"redis.password":               "REDIS_PASSWORD",
	"storage.type":                 "STORAGE_TYPE",
	"storage.local.base_path":      "STORAGE_LOCAL_BASE_PATH",
	"storage.s3.endpoint":          "S3_ENDPOINT",
	"storage.s3.region":            "S3_REGION",
	"storage.s3.bucket":            "S3_BUCKET",
	"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.s3.use_path_style":    "S3_USE_PATH_STYLE",
	"profile_api.base_url":         "PROFILE_API_BASE_URL",
	"mail.driver":                  "MAIL_DRIVER",
	"mail.host":                    "SMTP_HOST",
	"mail.port":                    "SMTP_PORT",
	"mail.username":                "SMTP_USERNAME",
	"mail.password":                "SMTP_PASSWORD",
	"mail.from":                    "MAIL_FROM",
	"pubsub.driver":                "PUBSUB_DRIVER",
	"pubsub.redis.address":         "PUBSUB_REDIS_ADDRESS",
	"pubsub.kafka.brokers":         "KAFKA_BROKERS",
	"log.level":                    "LOG_LEVEL",
	"log.pretty":                   "LOG_PRETTY",
}

func Load() (*Config, error) {
	return LoadFrom("./config", "config")
}

// LoadFrom reads the named config file from configPath, then applies
// defaults and environment overrides.
func LoadFrom(configPath, configName string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, configName)
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, defaults)
	if err := pkgconfig.BindEnvs(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
