// Package di wires the store's dependency graph: configuration in,
// fully decorated repository and service out. Collaborators receive an
// injected handle; nothing here is a global singleton.
package di

import (
	"fmt"

	"go.uber.org/zap"

	"talentgraph-backend/internal/config"
	"talentgraph-backend/internal/repository"
	"talentgraph-backend/internal/repository/fsrepo"
	"talentgraph-backend/internal/repository/redisrepo"
	"talentgraph-backend/internal/service/memory"
	appErrors "talentgraph-backend/pkg/errors"
	"talentgraph-backend/pkg/observability"
)

const metricsNamespace = "talentgraph"

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Collector  *observability.Collector
	Tracer     *observability.Tracer
	Repository repository.Repository
	Service    memory.Service
}

// ProvideLogger creates a new logger instance honoring the configured
// minimum level.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
		if err != nil {
			return nil, appErrors.NewConfiguration(fmt.Sprintf("invalid log level %q: %v", cfg.Logging.Level, err))
		}
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideTracer creates the tracer for store operations
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("candidate-memory-store")
}

// ProvideRepository builds the configured backend and composes the
// shared decorators around it. The backend kind is resolved exactly
// once, here; a misconfigured Redis selection fails construction.
func ProvideRepository(cfg *config.Config, logger *zap.Logger, collector *observability.Collector, tracer *observability.Tracer) (repository.Repository, error) {
	var backend repository.Repository

	switch cfg.Backend {
	case config.BackendFilesystem:
		repo, err := fsrepo.New(cfg.Filesystem.Root, cfg.Memory.MaxDepth)
		if err != nil {
			return nil, appErrors.NewConfiguration(fmt.Sprintf("filesystem backend setup failed: %v", err))
		}
		backend = repo
	case config.BackendRedis:
		repo, err := redisrepo.New(redisrepo.Config{
			URL:            cfg.Redis.URL,
			Namespace:      cfg.Redis.Namespace,
			TTL:            cfg.TTL(),
			MaxDepth:       cfg.Memory.MaxDepth,
			MaxRetries:     cfg.Redis.MaxRetries,
			RetryBaseDelay: cfg.RetryBaseDelay(),
		})
		if err != nil {
			return nil, appErrors.NewConfiguration(fmt.Sprintf("redis backend setup failed: %v", err))
		}
		// The Redis deployment is shared by many writers; shed load
		// fast when the server is down instead of stacking retries.
		backend = repository.NewBreakerRepository(repo, repository.DefaultBreakerConfig("candidate-memory-redis"), logger)
	default:
		return nil, appErrors.NewConfiguration(fmt.Sprintf("unsupported storage backend: %s", cfg.Backend))
	}

	return repository.NewInstrumentedRepository(backend, logger, collector, tracer), nil
}

// ProvideService creates the collaborator-facing memory service
func ProvideService(repo repository.Repository) memory.Service {
	return memory.NewService(repo)
}
