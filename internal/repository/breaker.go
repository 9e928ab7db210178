package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"talentgraph-backend/internal/domain"
)

// BreakerConfig holds configuration for the repository circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ReadyToTrip inputs
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerRepository decorates a Repository with a circuit breaker so a
// failing shared backend (typically Redis) sheds load fast instead of
// stacking up timed-out read-modify-write cycles.
//
// Contract outcomes (not-found, conflict, constraint violation,
// contention) count as successes: only genuine I/O failures trip the
// breaker.
type BreakerRepository struct {
	inner  Repository
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerRepository wraps inner with a circuit breaker.
func NewBreakerRepository(inner Repository, config BreakerConfig, logger *zap.Logger) *BreakerRepository {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return IsNotFound(err) || IsConflict(err) || IsConstraintViolation(err) || IsContention(err)
		},
	})
	return &BreakerRepository{inner: inner, cb: cb, logger: logger}
}

func (r *BreakerRepository) execute(fn func() (any, error)) (any, error) {
	return r.cb.Execute(fn)
}

func (r *BreakerRepository) CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error) {
	v, err := r.execute(func() (any, error) {
		return r.inner.CreateCandidateMemory(ctx, candidateID, initialData)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CandidateMemory), nil
}

func (r *BreakerRepository) GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error) {
	v, err := r.execute(func() (any, error) {
		memory, err := r.inner.GetCandidateMemory(ctx, candidateID)
		return memory, err
	})
	if err != nil {
		return nil, err
	}
	memory, _ := v.(*domain.CandidateMemory)
	return memory, nil
}

func (r *BreakerRepository) AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error) {
	v, err := r.execute(func() (any, error) {
		return r.inner.AddMemoryNode(ctx, candidateID, parentNodeID, data, metadata)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.MemoryNode), nil
}

func (r *BreakerRepository) UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error) {
	v, err := r.execute(func() (any, error) {
		return r.inner.UpdateMemoryNode(ctx, candidateID, nodeID, data, metadata)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *BreakerRepository) GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error) {
	v, err := r.execute(func() (any, error) {
		path, err := r.inner.GetNodePath(ctx, candidateID, nodeID)
		return path, err
	})
	if err != nil {
		return nil, err
	}
	path, _ := v.([]*domain.MemoryNode)
	return path, nil
}

func (r *BreakerRepository) ListCandidates(ctx context.Context) ([]string, error) {
	v, err := r.execute(func() (any, error) {
		candidates, err := r.inner.ListCandidates(ctx)
		return candidates, err
	})
	if err != nil {
		return nil, err
	}
	candidates, _ := v.([]string)
	return candidates, nil
}

func (r *BreakerRepository) DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error) {
	v, err := r.execute(func() (any, error) {
		return r.inner.DeleteCandidateMemory(ctx, candidateID)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *BreakerRepository) ForceSaveCandidateMemory(ctx context.Context, memory *domain.CandidateMemory) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.inner.ForceSaveCandidateMemory(ctx, memory)
	})
	return err
}

var _ Repository = (*BreakerRepository)(nil)
