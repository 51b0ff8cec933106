package metrics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"jobgraph/backend/internal/graph"
)

var (
	defaultCollector *Collector
	defaultOnce      sync.Once
)

// Collector holds the Prometheus metrics for the service
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	StoreQueries  *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec

	BackgroundTasks *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_queries_total",
				Help:      "Graph store queries by clause and outcome",
			},
			[]string{"clause", "outcome"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_query_duration_seconds",
				Help:      "Graph store query latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"clause"},
		),
		BackgroundTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "background_tasks_total",
				Help:      "Fire-and-forget tasks by name and outcome",
			},
			[]string{"task", "outcome"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreQueries,
		c.StoreDuration,
		c.BackgroundTasks,
	)
	return c
}

// Default returns the process-wide collector
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector("jobgraph")
	})
	return defaultCollector
}

// Registry exposes the registry for the /metrics handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveTask records the outcome of a background task
func (c *Collector) ObserveTask(task string, err error) {
	c.BackgroundTasks.WithLabelValues(task, outcome(err)).Inc()
}

// InstrumentStore wraps a store so every query is counted and timed
func (c *Collector) InstrumentStore(store graph.Store) graph.Store {
	return &instrumentedStore{next: store, c: c}
}

type instrumentedStore struct {
	next graph.Store
	c    *Collector
}

func (s *instrumentedStore) Run(ctx context.Context, q graph.Query) ([]graph.Record, error) {
	clause := leadingClause(q.Text)
	start := time.Now()
	records, err := s.next.Run(ctx, q)
	s.c.StoreDuration.WithLabelValues(clause).Observe(time.Since(start).Seconds())
	s.c.StoreQueries.WithLabelValues(clause, outcome(err)).Inc()
	return records, err
}

// leadingClause keeps label cardinality bounded: MATCH, MERGE, ...
func leadingClause(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToUpper(fields[0])
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
