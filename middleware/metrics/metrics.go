// Package metrics provides Prometheus metrics integration for factlog.
//
// It wraps a fact log adapter so appends, loads, and feed reads are counted
// and timed without touching the pure core.
//
// Basic usage:
//
//	m := metrics.New()
//	prometheus.MustRegister(m.Collectors()...)
//
//	store := factlog.New(m.WrapAdapter(memory.NewAdapter()))
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters"
)

// Metric labels.
const (
	LabelOperation = "operation"
	LabelStatus    = "status"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation values.
const (
	OperationAppend = "append"
	OperationLoad   = "load"
	OperationFeed   = "feed"
)

// Metrics holds all Prometheus metrics for factlog.
type Metrics struct {
	namespace string

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	factsAppended     prometheus.Counter
	factsLoaded       prometheus.Counter
	logHead           prometheus.Gauge
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the Prometheus namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		m.namespace = namespace
	}
}

// New creates a new Metrics instance with default settings.
func New(opts ...MetricsOption) *Metrics {
	m := &Metrics{namespace: "factlog"}
	for _, opt := range opts {
		opt(m)
	}

	m.operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "operations_total",
		Help:      "Total number of fact log operations.",
	}, []string{LabelOperation, LabelStatus})

	m.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of fact log operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{LabelOperation})

	m.factsAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "facts_appended_total",
		Help:      "Total number of facts appended to the log.",
	})

	m.factsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "facts_loaded_total",
		Help:      "Total number of facts read from the log.",
	})

	m.logHead = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "log_head_seq",
		Help:      "Sequence number of the most recently appended fact.",
	})

	return m
}

// Collectors returns all metric collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.factsAppended,
		m.factsLoaded,
		m.logHead,
	}
}

// WrapAdapter wraps a fact log adapter with metric collection.
func (m *Metrics) WrapAdapter(next adapters.FactLogAdapter) adapters.FactLogAdapter {
	return &metricsAdapter{next: next, metrics: m}
}

type metricsAdapter struct {
	next    adapters.FactLogAdapter
	metrics *Metrics
}

var (
	_ adapters.FactLogAdapter = (*metricsAdapter)(nil)
	_ adapters.FeedAdapter    = (*metricsAdapter)(nil)
)

func (a *metricsAdapter) AppendFacts(ctx context.Context, records []adapters.FactRecord) ([]adapters.StoredFact, error) {
	start := time.Now()
	stored, err := a.next.AppendFacts(ctx, records)
	a.observe(OperationAppend, start, err)
	if err == nil {
		a.metrics.factsAppended.Add(float64(len(stored)))
		a.metrics.logHead.Set(float64(stored[len(stored)-1].Seq))
	}
	return stored, err
}

func (a *metricsAdapter) FactsFor(ctx context.Context, entity string, upto time.Time) ([]adapters.StoredFact, error) {
	start := time.Now()
	facts, err := a.next.FactsFor(ctx, entity, upto)
	a.observe(OperationLoad, start, err)
	if err == nil {
		a.metrics.factsLoaded.Add(float64(len(facts)))
	}
	return facts, err
}

func (a *metricsAdapter) LoadFromSeq(ctx context.Context, fromSeq uint64, limit int) ([]adapters.StoredFact, error) {
	feed, ok := a.next.(adapters.FeedAdapter)
	if !ok {
		return nil, factlog.ErrFeedNotSupported
	}
	start := time.Now()
	facts, err := feed.LoadFromSeq(ctx, fromSeq, limit)
	a.observe(OperationFeed, start, err)
	return facts, err
}

func (a *metricsAdapter) Head(ctx context.Context) (uint64, error) {
	return a.next.Head(ctx)
}

func (a *metricsAdapter) GetLogInfo(ctx context.Context) (*adapters.LogInfo, error) {
	return a.next.GetLogInfo(ctx)
}

func (a *metricsAdapter) Initialize(ctx context.Context) error {
	return a.next.Initialize(ctx)
}

func (a *metricsAdapter) Close() error {
	return a.next.Close()
}

func (a *metricsAdapter) observe(op string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	a.metrics.operationsTotal.WithLabelValues(op, status).Inc()
	a.metrics.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
