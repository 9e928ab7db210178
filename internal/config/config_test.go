package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "talentgraph-backend/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendFilesystem, cfg.Backend)
	assert.Equal(t, "data/candidate-memory", cfg.Filesystem.Root)
	assert.Equal(t, "talentgraph", cfg.Redis.Namespace)
	assert.Equal(t, 10, cfg.Memory.MaxDepth)
	assert.Equal(t, 30*24*time.Hour, cfg.TTL())
	assert.Equal(t, 50*time.Millisecond, cfg.RetryBaseDelay())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
backend: redis
redis:
  url: redis://localhost:6379/0
  namespace: hiring
  ttl_seconds: 3600
  max_retries: 3
  retry_base_delay_ms: 25
memory:
  max_depth: 4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "hiring", cfg.Redis.Namespace)
	assert.Equal(t, time.Hour, cfg.TTL())
	assert.Equal(t, 3, cfg.Redis.MaxRetries)
	assert.Equal(t, 25*time.Millisecond, cfg.RetryBaseDelay())
	assert.Equal(t, 4, cfg.Memory.MaxDepth)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendFilesystem, cfg.Backend)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: filesystem
memory:
  max_depth: 4
`), 0o600))

	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://override:6379")
	t.Setenv("MAX_TREE_DEPTH", "7")
	t.Setenv("MEMORY_TTL_SECONDS", "120")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Backend)
	assert.Equal(t, "redis://override:6379", cfg.Redis.URL)
	assert.Equal(t, 7, cfg.Memory.MaxDepth)
	assert.Equal(t, 2*time.Minute, cfg.TTL())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Run("RedisWithoutConnectionString", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = BackendRedis
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
		assert.Contains(t, err.Error(), "no connection string")
	})

	t.Run("FilesystemWithoutRoot", func(t *testing.T) {
		cfg := Default()
		cfg.Filesystem.Root = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = "s3"
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Level = "verbose"
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})

	t.Run("ZeroMaxDepth", func(t *testing.T) {
		cfg := Default()
		cfg.Memory.MaxDepth = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})
}
