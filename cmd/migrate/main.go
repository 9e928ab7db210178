// Command migrate copies every candidate memory from the filesystem
// backend into the Redis backend. It is a one-shot batch tool meant to
// run during a maintenance window; re-running it is safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"talentgraph-backend/internal/config"
	"talentgraph-backend/internal/di"
	"talentgraph-backend/internal/migration"
	"talentgraph-backend/internal/repository/fsrepo"
	"talentgraph-backend/internal/repository/redisrepo"
)

func main() {
	configPath := flag.String("config", "", "optional path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	// The migration always needs both backends regardless of which one
	// the config selects for steady-state use.
	if cfg.Redis.URL == "" {
		fmt.Fprintln(os.Stderr, "configuration error: migration requires a redis connection string")
		os.Exit(1)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	source, err := fsrepo.New(cfg.Filesystem.Root, cfg.Memory.MaxDepth)
	if err != nil {
		logger.Fatal("filesystem backend setup failed", zap.Error(err))
	}
	target, err := redisrepo.New(redisrepo.Config{
		URL:            cfg.Redis.URL,
		Namespace:      cfg.Redis.Namespace,
		TTL:            cfg.TTL(),
		MaxDepth:       cfg.Memory.MaxDepth,
		MaxRetries:     cfg.Redis.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	})
	if err != nil {
		logger.Fatal("redis backend setup failed", zap.Error(err))
	}
	defer target.Close() //nolint:errcheck

	report, err := migration.NewMigrator(source, target, logger).Run(context.Background())
	if err != nil {
		logger.Fatal("migration aborted", zap.Error(err))
	}
	if len(report.Failed) > 0 {
		logger.Error("migration completed with failures",
			zap.Int("migrated", report.Migrated),
			zap.Strings("failed", report.Failed),
		)
		os.Exit(1)
	}
	logger.Info("migration completed",
		zap.Int("total", report.Total),
		zap.Int("migrated", report.Migrated),
	)
}
