// Package migration moves candidate memories between backends as a
// one-shot batch job. It reads every candidate from the source, force-
// saves each aggregate into the target and reports per-candidate
// outcomes. Re-running is safe: force save is an idempotent overwrite.
// There is no rollback of partial runs.
package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"talentgraph-backend/internal/repository"
)

// Report summarizes a migration run.
type Report struct {
	Total    int
	Migrated int
	Failed   []string
}

// Migrator copies candidate memories from a source to a target backend.
type Migrator struct {
	source repository.Repository
	target repository.Repository
	logger *zap.Logger
}

// NewMigrator creates a migrator between the given backends.
func NewMigrator(source, target repository.Repository, logger *zap.Logger) *Migrator {
	return &Migrator{source: source, target: target, logger: logger}
}

// Run migrates every candidate known to the source. Individual
// candidate failures are recorded and skipped; only a failure to
// enumerate candidates aborts the run.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	candidates, err := m.source.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: list source candidates: %w", err)
	}

	report := &Report{Total: len(candidates)}
	for _, candidateID := range candidates {
		if err := m.migrateOne(ctx, candidateID); err != nil {
			m.logger.Error("candidate migration failed",
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, candidateID)
			continue
		}
		report.Migrated++
		m.logger.Info("candidate migrated", zap.String("candidate_id", candidateID))
	}

	m.logger.Info("migration finished",
		zap.Int("total", report.Total),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (m *Migrator) migrateOne(ctx context.Context, candidateID string) error {
	memory, err := m.source.GetCandidateMemory(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if memory == nil {
		// Listed but gone by the time we read it; nothing to copy.
		return fmt.Errorf("candidate listed but not readable from source")
	}
	if err := m.target.ForceSaveCandidateMemory(ctx, memory); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	return nil
}
