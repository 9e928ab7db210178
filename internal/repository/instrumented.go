package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"talentgraph-backend/internal/domain"
	"talentgraph-backend/pkg/observability"
)

// InstrumentedRepository decorates a Repository with structured
// logging, Prometheus metrics and tracing. It is transparent to
// callers: semantics and error types pass through unchanged.
type InstrumentedRepository struct {
	inner     Repository
	logger    *zap.Logger
	collector *observability.Collector
	tracer    *observability.Tracer
}

// NewInstrumentedRepository wraps inner with observability concerns.
func NewInstrumentedRepository(inner Repository, logger *zap.Logger, collector *observability.Collector, tracer *observability.Tracer) *InstrumentedRepository {
	return &InstrumentedRepository{
		inner:     inner,
		logger:    logger,
		collector: collector,
		tracer:    tracer,
	}
}

// observe records the outcome of one operation across all three sinks.
func (r *InstrumentedRepository) observe(op, candidateID string, start time.Time, err error) {
	duration := time.Since(start)

	status := "success"
	switch {
	case err == nil:
		// keep "success"
	case IsContention(err):
		status = "contention"
		r.collector.ContentionFailures.Inc()
	case IsConflict(err):
		status = "conflict"
	case IsConstraintViolation(err):
		status = "rejected"
	case IsNotFound(err):
		status = "not_found"
	default:
		status = "error"
	}

	r.collector.StoreOperations.WithLabelValues(op, status).Inc()
	r.collector.StoreDuration.WithLabelValues(op).Observe(duration.Seconds())

	if err != nil && status == "error" {
		r.logger.Warn("store operation failed",
			zap.String("operation", op),
			zap.String("candidate_id", candidateID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("store operation",
		zap.String("operation", op),
		zap.String("candidate_id", candidateID),
		zap.String("status", status),
		zap.Duration("duration", duration),
	)
}

func (r *InstrumentedRepository) CreateCandidateMemory(ctx context.Context, candidateID string, initialData map[string]any) (*domain.CandidateMemory, error) {
	start := time.Now()
	var memory *domain.CandidateMemory
	err := r.tracer.TraceOperation(ctx, "CreateCandidateMemory", candidateID, func(ctx context.Context) error {
		var err error
		memory, err = r.inner.CreateCandidateMemory(ctx, candidateID, initialData)
		return err
	})
	r.observe("create_candidate_memory", candidateID, start, err)
	if err == nil {
		r.collector.MemoriesCreated.Inc()
	}
	return memory, err
}

func (r *InstrumentedRepository) GetCandidateMemory(ctx context.Context, candidateID string) (*domain.CandidateMemory, error) {
	start := time.Now()
	var memory *domain.CandidateMemory
	err := r.tracer.TraceOperation(ctx, "GetCandidateMemory", candidateID, func(ctx context.Context) error {
		var err error
		memory, err = r.inner.GetCandidateMemory(ctx, candidateID)
		return err
	})
	r.observe("get_candidate_memory", candidateID, start, err)
	return memory, err
}

func (r *InstrumentedRepository) AddMemoryNode(ctx context.Context, candidateID, parentNodeID string, data, metadata map[string]any) (*domain.MemoryNode, error) {
	start := time.Now()
	var node *domain.MemoryNode
	err := r.tracer.TraceOperation(ctx, "AddMemoryNode", candidateID, func(ctx context.Context) error {
		var err error
		node, err = r.inner.AddMemoryNode(ctx, candidateID, parentNodeID, data, metadata)
		return err
	})
	r.observe("add_memory_node", candidateID, start, err)
	if err == nil {
		r.collector.NodesAdded.Inc()
	}
	return node, err
}

func (r *InstrumentedRepository) UpdateMemoryNode(ctx context.Context, candidateID, nodeID string, data, metadata map[string]any) (bool, error) {
	start := time.Now()
	var updated bool
	err := r.tracer.TraceOperation(ctx, "UpdateMemoryNode", candidateID, func(ctx context.Context) error {
		var err error
		updated, err = r.inner.UpdateMemoryNode(ctx, candidateID, nodeID, data, metadata)
		return err
	})
	r.observe("update_memory_node", candidateID, start, err)
	return updated, err
}

func (r *InstrumentedRepository) GetNodePath(ctx context.Context, candidateID, nodeID string) ([]*domain.MemoryNode, error) {
	start := time.Now()
	var path []*domain.MemoryNode
	err := r.tracer.TraceOperation(ctx, "GetNodePath", candidateID, func(ctx context.Context) error {
		var err error
		path, err = r.inner.GetNodePath(ctx, candidateID, nodeID)
		return err
	})
	r.observe("get_node_path", candidateID, start, err)
	return path, err
}

func (r *InstrumentedRepository) ListCandidates(ctx context.Context) ([]string, error) {
	start := time.Now()
	var candidates []string
	err := r.tracer.TraceOperation(ctx, "ListCandidates", "", func(ctx context.Context) error {
		var err error
		candidates, err = r.inner.ListCandidates(ctx)
		return err
	})
	r.observe("list_candidates", "", start, err)
	return candidates, err
}

func (r *InstrumentedRepository) DeleteCandidateMemory(ctx context.Context, candidateID string) (bool, error) {
	start := time.Now()
	var deleted bool
	err := r.tracer.TraceOperation(ctx, "DeleteCandidateMemory", candidateID, func(ctx context.Context) error {
		var err error
		deleted, err = r.inner.DeleteCandidateMemory(ctx, candidateID)
		return err
	})
	r.observe("delete_candidate_memory", candidateID, start, err)
	if err == nil && deleted {
		r.collector.MemoriesDeleted.Inc()
	}
	return deleted, err
}

func (r *InstrumentedRepository) ForceSaveCandidateMemory(ctx context.Context, memory *domain.CandidateMemory) error {
	start := time.Now()
	err := r.tracer.TraceOperation(ctx, "ForceSaveCandidateMemory", memory.CandidateID, func(ctx context.Context) error {
		return r.inner.ForceSaveCandidateMemory(ctx, memory)
	})
	r.observe("force_save_candidate_memory", memory.CandidateID, start, err)
	return err
}

var _ Repository = (*InstrumentedRepository)(nil)
