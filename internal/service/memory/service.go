// Package memory provides the collaborator-facing operations over the
// candidate memory store: input validation, error mapping and the
// session-state convenience helpers built on the root node.
package memory

import (
	"context"
	"errors"

	"talentgraph-backend/internal/domain"
	"talentgraph-backend/internal/repository"
	appErrors "talentgraph-backend/pkg/errors"
)

// Service defines the interface for candidate memory operations.
type Service interface {
	// CreateCandidateMemory creates a new tree with a single root node
	CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error)

	// GetCandidateMemory returns the full aggregate, or nil when the
	// candidate has no stored memory
	GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error)

	// AddMemoryNode appends a child node under an existing parent
	AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error)

	// UpdateMemoryNode replaces a node's data and/or metadata in place
	UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error)

	// GetNodePath returns the root-to-node ancestor chain
	GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error)

	// ListCandidates enumerates every candidate with a stored memory
	ListCandidates(ctx context.Context) ([]string, error)

	// DeleteCandidateMemory removes the entire tree
	DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error)

	// SaveSessionState re-serializes a session's full state into the
	// root node, creating the memory when it does not exist yet
	SaveSessionState(ctx context.Context, candidateID string, state map[string]any) error

	// LoadSessionState reads the session state back from the root
	// node; nil when the candidate has no stored memory
	LoadSessionState(ctx context.Context, candidateID string) (map[string]any, error)
}

// service implements the Service interface on top of a repository.
type service struct {
	repo repository.Repository
}

// NewService creates a new candidate memory service with the provided repository.
func NewService(repo repository.Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error) {
	if candidateID == "" {
		return nil, appErrors.NewValidation("candidate id cannot be empty")
	}
	memory, err := s.repo.CreateCandidateMemory(ctx, candidateID, initialData)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to create candidate memory")
	}
	return memory, nil
}

func (s *service) GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error) {
	if candidateID == "" {
		return nil, appErrors.NewValidation("candidate id cannot be empty")
	}
	memory, err := s.repo.GetCandidateMemory(ctx, candidateID)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to get candidate memory")
	}
	return memory, nil
}

func (s *service) AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error) {
	if candidateID == "" {
		return nil, appErrors.NewValidation("candidate id cannot be empty")
	}
	if parentNodeID == "" {
		return nil, appErrors.NewValidation("parent node id cannot be empty")
	}
	node, err := s.repo.AddMemoryNode(ctx, candidateID, parentNodeID, data, metadata)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to add memory node")
	}
	return node, nil
}

func (s *service) UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error) {
	if candidateID == "" || nodeID == "" {
		return false, appErrors.NewValidation("candidate id and node id cannot be empty")
	}
	updated, err := s.repo.UpdateMemoryNode(ctx, candidateID, nodeID, data, metadata)
	if err != nil {
		return false, mapRepositoryError(err, "failed to update memory node")
	}
	return updated, nil
}

func (s *service) GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error) {
	if candidateID == "" || nodeID == "" {
		return nil, appErrors.NewValidation("candidate id and node id cannot be empty")
	}
	path, err := s.repo.GetNodePath(ctx, candidateID, nodeID)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to get node path")
	}
	return path, nil
}

func (s *service) ListCandidates(ctx context.Context) ([]string, error) {
	candidates, err := s.repo.ListCandidates(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to list candidates")
	}
	return candidates, nil
}

func (s *service) DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error) {
	if candidateID == "" {
		return false, appErrors.NewValidation("candidate id cannot be empty")
	}
	deleted, err := s.repo.DeleteCandidateMemory(ctx, candidateID)
	if err != nil {
		return false, mapRepositoryError(err, "failed to delete candidate memory")
	}
	return deleted, nil
}

// SaveSessionState stores a session's full serialized state in the root
// node. Sessions own no other nodes; every save replaces the whole
// state, so a partially applied session update can never be observed.
func (s *service) SaveSessionState(ctx context.Context, candidateID string, state map[string]any) error {
	if candidateID == "" {
		return appErrors.NewValidation("candidate id cannot be empty")
	}
	memory, err := s.repo.GetCandidateMemory(ctx, candidateID)
	if err != nil {
		return mapRepositoryError(err, "failed to load candidate memory for session save")
	}
	if memory == nil {
		_, err := s.repo.CreateCandidateMemory(ctx, candidateID, state)
		if err == nil {
			return nil
		}
		if !repository.IsConflict(err) {
			return mapRepositoryError(err, "failed to create candidate memory for session save")
		}
		// Another save created the memory between the read and the
		// create; fall through to the update path against it.
		memory, err = s.repo.GetCandidateMemory(ctx, candidateID)
		if err != nil {
			return mapRepositoryError(err, "failed to load candidate memory for session save")
		}
		if memory == nil {
			return appErrors.NewNotFound("candidate memory disappeared during session save")
		}
	}
	updated, err := s.repo.UpdateMemoryNode(ctx, candidateID, memory.RootNodeID, state, nil)
	if err != nil {
		return mapRepositoryError(err, "failed to save session state")
	}
	if !updated {
		// Memory vanished between the read and the write.
		return appErrors.NewNotFound("candidate memory disappeared during session save")
	}
	return nil
}

func (s *service) LoadSessionState(ctx context.Context, candidateID string) (map[string]any, error) {
	if candidateID == "" {
		return nil, appErrors.NewValidation("candidate id cannot be empty")
	}
	memory, err := s.repo.GetCandidateMemory(ctx, candidateID)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to load session state")
	}
	if memory == nil {
		return nil, nil
	}
	return memory.Root().Data, nil
}

// mapRepositoryError converts typed repository errors into the
// application taxonomy so collaborators can branch on category without
// importing the repository layer.
func mapRepositoryError(err error, message string) error {
	switch {
	case repository.IsNotFound(err):
		return appErrors.NewNotFound(err.Error())
	case repository.IsConflict(err):
		return appErrors.NewConflict(err.Error())
	case repository.IsConstraintViolation(err):
		return appErrors.NewConstraint(err.Error(), unwrapCause(err))
	case repository.IsContention(err):
		return appErrors.NewContention(err.Error(), nil)
	default:
		return appErrors.Wrap(err, message)
	}
}

func unwrapCause(err error) error {
	var cv repository.ErrConstraintViolation
	if errors.As(err, &cv) {
		return cv.Cause
	}
	return nil
}
