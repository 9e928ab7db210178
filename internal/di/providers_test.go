package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"talentgraph-backend/internal/config"
	appErrors "talentgraph-backend/pkg/errors"
)

func filesystemConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Filesystem.Root = t.TempDir()
	return cfg
}

func TestProvideLogger(t *testing.T) {
	t.Run("HonorsConfiguredLevel", func(t *testing.T) {
		cfg := filesystemConfig(t)
		cfg.Logging.Level = "error"

		logger, err := ProvideLogger(cfg)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))

		cfg.Logging.Level = "debug"
		logger, err = ProvideLogger(cfg)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("RejectsUnknownLevel", func(t *testing.T) {
		cfg := filesystemConfig(t)
		cfg.Logging.Level = "chatty"

		_, err := ProvideLogger(cfg)
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})
}

func TestProvideRepository(t *testing.T) {
	t.Run("FilesystemBackend", func(t *testing.T) {
		cfg := filesystemConfig(t)
		repo, err := ProvideRepository(cfg, zap.NewNop(), ProvideCollector(cfg), ProvideTracer(cfg))
		require.NoError(t, err)

		// The decorated chain is functional end to end.
		ctx := context.Background()
		memory, err := repo.CreateCandidateMemory(ctx, "c1", map[string]any{"stage": "screening"})
		require.NoError(t, err)

		stored, err := repo.GetCandidateMemory(ctx, "c1")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, memory.RootNodeID, stored.RootNodeID)
	})

	t.Run("RedisBackendWithoutConnectionString", func(t *testing.T) {
		cfg := filesystemConfig(t)
		cfg.Backend = config.BackendRedis
		cfg.Redis.URL = ""

		_, err := ProvideRepository(cfg, zap.NewNop(), ProvideCollector(cfg), ProvideTracer(cfg))
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})

	t.Run("UnsupportedBackend", func(t *testing.T) {
		cfg := filesystemConfig(t)
		cfg.Backend = "s3"

		_, err := ProvideRepository(cfg, zap.NewNop(), ProvideCollector(cfg), ProvideTracer(cfg))
		require.Error(t, err)
		assert.True(t, appErrors.IsConfiguration(err))
	})
}

func TestInitializeContainer(t *testing.T) {
	cfg := filesystemConfig(t)

	container, err := InitializeContainer(cfg)
	require.NoError(t, err)
	require.NotNil(t, container.Logger)
	require.NotNil(t, container.Repository)
	require.NotNil(t, container.Service)
	assert.Same(t, cfg, container.Config)

	memory, err := container.Service.CreateCandidateMemory(context.Background(), "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", memory.CandidateID)
}
