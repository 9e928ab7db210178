package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the candidate memory store
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Business metrics
	MemoriesCreated prometheus.Counter
	MemoriesDeleted prometheus.Counter
	NodesAdded      prometheus.Counter

	// Optimistic locking metrics
	ContentionFailures prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of candidate memory store operations",
		},
		[]string{"operation", "status"},
	)

	storeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Candidate memory store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	memoriesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_created_total",
			Help:      "Total number of candidate memories created",
		},
	)

	memoriesDeleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_deleted_total",
			Help:      "Total number of candidate memories deleted",
		},
	)

	nodesAdded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_nodes_added_total",
			Help:      "Total number of memory nodes appended",
		},
	)

	contentionFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_contention_failures_total",
			Help:      "Total number of writes that exhausted the optimistic-lock retry budget",
		},
	)

	registry.MustRegister(
		storeOperations,
		storeDuration,
		memoriesCreated,
		memoriesDeleted,
		nodesAdded,
		contentionFailures,
	)

	globalCollector = &Collector{
		registry:           registry,
		StoreOperations:    storeOperations,
		StoreDuration:      storeDuration,
		MemoriesCreated:    memoriesCreated,
		MemoriesDeleted:    memoriesDeleted,
		NodesAdded:         nodesAdded,
		ContentionFailures: contentionFailures,
	}
	return globalCollector
}

// Registry exposes the collector's registry for scrape wiring.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
