// Package fsrepo implements the candidate memory repository on the
// local filesystem: one JSON document per candidate under a configured
// root directory.
//
// Every mutating operation is read-modify-write over the whole
// document. Writes go through a temporary file and an atomic rename, so
// a crash mid-write never leaves a torn document. A store-level mutex
// gives same-process operations a total order; concurrent writers from
// other processes are not coordinated, which is the accepted limitation
// of this deployment mode.
package fsrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"talentgraph-backend/internal/domain"
	"talentgraph-backend/internal/repository"
)

const docExt = ".json"

// Repository is the filesystem-backed candidate memory store.
type Repository struct {
	root     string
	maxDepth int

	mu sync.Mutex
}

// New creates a filesystem repository rooted at dir. The directory is
// created if missing.
func New(dir string, maxDepth int) (*Repository, error) {
	if dir == "" {
		return nil, fmt.Errorf("fsrepo: storage root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("fsrepo: init storage root %s: %w", dir, err)
	}
	return &Repository{root: dir, maxDepth: maxDepth}, nil
}

func (r *Repository) pathFor(candidateID string) (string, error) {
	if candidateID == "" {
		return "", fmt.Errorf("fsrepo: invalid candidate id (empty)")
	}
	if strings.ContainsAny(candidateID, "/\\") {
		return "", fmt.Errorf("fsrepo: invalid candidate id %q (contains path separator)", candidateID)
	}
	dir, err := filepath.Abs(r.root)
	if err != nil {
		return "", fmt.Errorf("fsrepo: abs root: %w", err)
	}
	resolved := filepath.Join(dir, candidateID+docExt)
	if !strings.HasPrefix(resolved, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("fsrepo: path traversal detected for candidate id %q", candidateID)
	}
	return resolved, nil
}

// load reads and validates a candidate's document; (nil, nil) when absent.
func (r *Repository) load(candidateID string) (*domain.CandidateMemory, error) {
	path, err := r.pathFor(candidateID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fsrepo: read %s: %w", path, err)
	}
	return domain.Unmarshal(b)
}

// save writes the document atomically via a temp file and rename.
func (r *Repository) save(memory *domain.CandidateMemory) error {
	b, err := domain.Marshal(memory)
	if err != nil {
		return err
	}
	path, err := r.pathFor(memory.CandidateID)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("fsrepo: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("fsrepo: atomic rename %s: %w", path, err)
	}
	return nil
}

// CreateCandidateMemory creates a new tree with a single root node.
func (r *Repository) CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, err := r.pathFor(candidateID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		return nil, repository.NewConflict("candidate memory", candidateID, "memory already exists")
	}
	memory := domain.NewCandidateMemory(candidateID, initialData)
	if err := r.save(memory); err != nil {
		return nil, err
	}
	return memory, nil
}

// GetCandidateMemory returns the aggregate, or (nil, nil) when absent.
func (r *Repository) GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(candidateID)
}

// AddMemoryNode appends a child under parentNodeID.
func (r *Repository) AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memory, err := r.load(candidateID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, repository.NewNotFound("candidate memory", candidateID)
	}
	node, err := memory.AddNode(parentNodeID, data, metadata, r.maxDepth)
	if err != nil {
		return nil, repository.NewConstraintViolation(candidateID, err.Error(), err)
	}
	if err := r.save(memory); err != nil {
		return nil, err
	}
	return node, nil
}

// UpdateMemoryNode replaces a node's data and/or metadata in place.
func (r *Repository) UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memory, err := r.load(candidateID)
	if err != nil {
		return false, err
	}
	if memory == nil {
		return false, nil
	}
	if !memory.UpdateNode(nodeID, data, metadata) {
		return false, nil
	}
	if err := r.save(memory); err != nil {
		return false, err
	}
	return true, nil
}

// GetNodePath returns the root-to-node path, empty on not-found.
func (r *Repository) GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memory, err := r.load(candidateID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, nil
	}
	return memory.Path(nodeID), nil
}

// ListCandidates enumerates every candidate with a stored document.
func (r *Repository) ListCandidates(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("fsrepo: list %s: %w", r.root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != docExt {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), docExt))
	}
	return out, nil
}

// DeleteCandidateMemory removes the candidate's document.
func (r *Repository) DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, err := r.pathFor(candidateID)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fsrepo: delete %s: %w", path, err)
	}
	return true, nil
}

// ForceSaveCandidateMemory unconditionally overwrites the stored
// document. Used by the migration path only.
func (r *Repository) ForceSaveCandidateMemory(ctx context.Context, memory *domain.CandidateMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(memory)
}

var _ repository.Repository = (*Repository)(nil)
