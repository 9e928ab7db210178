// Package redisrepo implements the candidate memory repository on
// Redis: one key per candidate holding the serialized aggregate, with a
// TTL refreshed on every read and write.
//
// The backend is shared by multiple concurrent writers, so every
// mutating operation runs an optimistic read-modify-write cycle: WATCH
// the candidate's key, read and decode the current document, apply the
// change in memory, then write back inside a MULTI/EXEC transaction
// that aborts if the key changed since the read. Aborted transactions
// retry with exponential backoff up to a bounded attempt count;
// exhaustion surfaces a contention error instead of looping forever.
package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"talentgraph-backend/internal/domain"
	"talentgraph-backend/internal/repository"
)

// Config holds the settings the Redis backend consumes.
type Config struct {
	// URL is the connection string (redis://host:port/db). Required.
	URL string

	// Namespace prefixes every key. Defaults to "talentgraph".
	Namespace string

	// TTL is the retention window for a candidate's document. Active
	// candidates are refreshed on every read and write; abandoned ones
	// eventually expire. Zero means no expiry.
	TTL time.Duration

	// MaxDepth bounds the level of any node in any tree.
	MaxDepth int

	// MaxRetries caps the optimistic-lock retry loop.
	MaxRetries int

	// RetryBaseDelay is the first backoff step; it doubles per attempt.
	RetryBaseDelay time.Duration
}

const (
	defaultNamespace      = "talentgraph"
	defaultMaxRetries     = 5
	defaultRetryBaseDelay = 50 * time.Millisecond

	// maxBackoffShift caps the exponential backoff so a large retry
	// budget cannot shift the delay into overflow.
	maxBackoffShift = 10
)

// Repository is the Redis-backed candidate memory store.
type Repository struct {
	client         *redis.Client
	namespace      string
	ttl            time.Duration
	maxDepth       int
	maxRetries     int
	retryBaseDelay time.Duration
}

// New creates a Redis repository. The connection string requirement is
// validated eagerly so a misconfigured deployment fails at construction
// rather than silently degrading; the connection itself is established
// lazily by the client on first use.
func New(cfg Config) (*Repository, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redisrepo: connection string is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redisrepo: invalid connection string: %w", err)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	return &Repository{
		client:         redis.NewClient(opts),
		namespace:      cfg.Namespace,
		ttl:            cfg.TTL,
		maxDepth:       cfg.MaxDepth,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}, nil
}

// NewWithClient wires an existing client; used by tests and the DI
// container when the client lifecycle is managed elsewhere.
func NewWithClient(client *redis.Client, cfg Config) *Repository {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	return &Repository{
		client:         client,
		namespace:      cfg.Namespace,
		ttl:            cfg.TTL,
		maxDepth:       cfg.MaxDepth,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) keyFor(candidateID string) string {
	return fmt.Sprintf("%s:candidate:%s", r.namespace, candidateID)
}

// CreateCandidateMemory creates a new tree with a single root node.
// SETNX keeps the normal create path from clobbering an existing
// candidate's memory.
func (r *Repository) CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("redisrepo: invalid candidate id (empty)")
	}
	memory := domain.NewCandidateMemory(candidateID, initialData)
	b, err := domain.Marshal(memory)
	if err != nil {
		return nil, err
	}
	set, err := r.client.SetNX(ctx, r.keyFor(candidateID), b, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redisrepo: create candidate memory %s: %w", candidateID, err)
	}
	if !set {
		return nil, repository.NewConflict("candidate memory", candidateID, "memory already exists")
	}
	return memory, nil
}

// GetCandidateMemory returns the aggregate, or (nil, nil) when absent.
// The TTL is refreshed on read so active candidates do not expire.
func (r *Repository) GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error) {
	key := r.keyFor(candidateID)
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisrepo: get candidate memory %s: %w", candidateID, err)
	}
	memory, err := domain.Unmarshal(b)
	if err != nil {
		return nil, err
	}
	if r.ttl > 0 {
		// Retention refresh, not correctness: a failed EXPIRE must not
		// fail the read.
		_ = r.client.Expire(ctx, key, r.ttl).Err()
	}
	return memory, nil
}

// AddMemoryNode appends a child under parentNodeID using the optimistic
// write cycle. Two concurrent appends against the same parent never
// lose each other: the loser of the EXEC race retries against the
// winner's document and re-derives level and children order.
func (r *Repository) AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error) {
	var node *domain.MemoryNode
	err := r.withOptimisticWrite(ctx, candidateID, func(memory *domain.CandidateMemory) (bool, error) {
		if memory == nil {
			return false, repository.NewNotFound("candidate memory", candidateID)
		}
		n, err := memory.AddNode(parentNodeID, data, metadata, r.maxDepth)
		if err != nil {
			return false, repository.NewConstraintViolation(candidateID, err.Error(), err)
		}
		node = n
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// UpdateMemoryNode replaces a node's data and/or metadata in place.
func (r *Repository) UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error) {
	updated := false
	err := r.withOptimisticWrite(ctx, candidateID, func(memory *domain.CandidateMemory) (bool, error) {
		if memory == nil {
			return false, nil
		}
		updated = memory.UpdateNode(nodeID, data, metadata)
		return updated, nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// withOptimisticWrite runs the bounded WATCH / read / mutate / EXEC
// loop. mutate receives the freshly decoded document (nil when the key
// is absent) and reports whether anything must be written back.
func (r *Repository) withOptimisticWrite(ctx context.Context, candidateID string, mutate func(*domain.CandidateMemory) (bool, error)) error {
	key := r.keyFor(candidateID)

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			var memory *domain.CandidateMemory
			b, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				memory = nil
			case err != nil:
				return fmt.Errorf("redisrepo: read candidate memory %s: %w", candidateID, err)
			default:
				memory, err = domain.Unmarshal(b)
				if err != nil {
					return err
				}
			}

			dirty, err := mutate(memory)
			if err != nil || !dirty {
				return err
			}

			payload, err := domain.Marshal(memory)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, r.ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			// Another writer got there first; re-read and retry.
			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return err
	}
	return repository.NewContention(candidateID, r.maxRetries)
}

// backoff returns the delay before the next optimistic-write attempt:
// the base delay doubled per attempt, capped so it stays positive for
// any configured retry budget.
func (r *Repository) backoff(attempt int) time.Duration {
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return r.retryBaseDelay * time.Duration(1<<attempt)
}

// GetNodePath returns the root-to-node path, empty on not-found.
func (r *Repository) GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error) {
	memory, err := r.GetCandidateMemory(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if memory == nil {
		return nil, nil
	}
	return memory.Path(nodeID), nil
}

// ListCandidates scans the namespace for candidate keys.
func (r *Repository) ListCandidates(ctx context.Context) ([]string, error) {
	prefix := fmt.Sprintf("%s:candidate:", r.namespace)
	var out []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redisrepo: list candidates: %w", err)
	}
	return out, nil
}

// DeleteCandidateMemory removes the candidate's key. A single DEL
// cannot leave anything partial behind, so no CAS is needed.
func (r *Repository) DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error) {
	n, err := r.client.Del(ctx, r.keyFor(candidateID)).Result()
	if err != nil {
		return false, fmt.Errorf("redisrepo: delete candidate memory %s: %w", candidateID, err)
	}
	return n > 0, nil
}

// ForceSaveCandidateMemory unconditionally overwrites the candidate's
// key. Migration-only path; assumes a maintenance window with no
// concurrent collaborator writes.
func (r *Repository) ForceSaveCandidateMemory(ctx context.Context, memory *domain.CandidateMemory) error {
	b, err := domain.Marshal(memory)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.keyFor(memory.CandidateID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redisrepo: force save candidate memory %s: %w", memory.CandidateID, err)
	}
	return nil
}

var _ repository.Repository = (*Repository)(nil)
