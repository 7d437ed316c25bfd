package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "missing")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./uploads", cfg.Storage.Local.BasePath)
	assert.Equal(t, "avatars/", cfg.Avatar.KeyPrefix)
	assert.Equal(t, time.Hour, cfg.Avatar.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.Avatar.PopulateTimeout)
	assert.Equal(t, 5*time.Second, cfg.Cache.InvalidateHold)
	assert.Equal(t, "https://reqres.in/api", cfg.ProfileAPI.BaseURL)
	assert.Equal(t, int64(5<<20), cfg.ProfileAPI.MaxImageBytes)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, "log", cfg.Mail.Driver)
	assert.Equal(t, "redis", cfg.PubSub.Driver)
	assert.Equal(t, 4, cfg.PubSub.Kafka.Partitions)
	assert.Equal(t, "profile-service", cfg.Log.ServiceName)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
storage:
  type: s3
  s3:
    bucket: from-file
avatar:
  validate_image: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.yaml"), []byte(yaml), 0o644))
	t.Setenv("S3_BUCKET", "from-env")
	t.Setenv("MAIL_DRIVER", "smtp")

	cfg, err := LoadFrom(dir, "svc")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "from-env", cfg.Storage.S3.Bucket)
	assert.False(t, cfg.Avatar.ValidateImage)
	assert.Equal(t, "smtp", cfg.Mail.Driver)
}
