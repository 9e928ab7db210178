// Package repository defines the storage contract for candidate
// memories and the error taxonomy shared by its implementations.
package repository

import (
	"context"

	"talentgraph-backend/internal/domain"
)

// Repository is the operation set every candidate memory backend
// implements. All calls are synchronous; an in-flight read-modify-write
// either completes or fails, it is never left half-applied.
type Repository interface {
	// CreateCandidateMemory creates a new tree with a single root node
	// carrying initialData. Returns ErrConflict if the candidate
	// already has a memory.
	CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error)

	// GetCandidateMemory returns the fully materialized aggregate, or
	// (nil, nil) when the candidate has no stored memory.
	GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error)

	// AddMemoryNode appends a new child under parentNodeID. Returns
	// ErrNotFound when the candidate has no memory and
	// ErrConstraintViolation when the parent is unknown or the append
	// would exceed the configured maximum depth; neither persists
	// anything.
	AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error)

	// UpdateMemoryNode replaces data and/or metadata on an existing
	// node in place. Returns (false, nil) when the candidate or node
	// does not exist; nothing is persisted in that case.
	UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error)

	// GetNodePath returns the nodes from the root down to nodeID
	// (root first), or an empty slice when the candidate or node is
	// unknown.
	GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error)

	// ListCandidates enumerates every candidate with a persisted
	// memory. Order is not meaningful.
	ListCandidates(ctx context.Context) ([]string, error)

	// DeleteCandidateMemory removes the entire tree. Returns false
	// when nothing existed to delete.
	DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error)

	// ForceSaveCandidateMemory unconditionally overwrites the stored
	// aggregate. This is the migration path, distinct from create; it
	// must not be used by steady-state collaborators.
	ForceSaveCandidateMemory(ctx context.Context, memory *domain.CandidateMemory) error
}
