package mount

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the engine's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "effuse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "mount").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the engine's Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the render-duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "effuse",
		Subsystem: "mount",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects engine counters. All record methods are safe on a
// nil receiver, so an engine without metrics pays only a nil check.
//
// Metrics collected:
//   - effuse_mount_renders_total: Counter of render passes
//   - effuse_mount_render_duration_seconds: Histogram of render pass duration
//   - effuse_mount_reconcile_ops_total: Counter of reconcile ops by kind
//   - effuse_mount_binding_runs_total: Counter of binding effect runs by kind
//   - effuse_mount_boundary_trips_total: Counter of error-boundary fallbacks
type Metrics struct {
	rendersTotal   prometheus.Counter
	renderDuration prometheus.Histogram
	reconcileOps   *prometheus.CounterVec
	bindingRuns    *prometheus.CounterVec
	boundaryTrips  prometheus.Counter
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of render passes",
			ConstLabels: config.ConstLabels,
		}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		reconcileOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_ops_total",
			Help:        "Total keyed reconciliation operations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		bindingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "binding_runs_total",
			Help:        "Total reactive binding effect runs by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		boundaryTrips: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "boundary_trips_total",
			Help:        "Total error-boundary fallback activations",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) observeRender(d time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.Inc()
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) recordReconcile(stats ReconcileStats) {
	if m == nil {
		return
	}
	if stats.Moved > 0 {
		m.reconcileOps.WithLabelValues("moved").Add(float64(stats.Moved))
	}
	if stats.Inserted > 0 {
		m.reconcileOps.WithLabelValues("inserted").Add(float64(stats.Inserted))
	}
	if stats.Removed > 0 {
		m.reconcileOps.WithLabelValues("removed").Add(float64(stats.Removed))
	}
}

func (m *Metrics) recordBinding(kind string) {
	if m == nil {
		return
	}
	m.bindingRuns.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordBoundaryTrip() {
	if m == nil {
		return
	}
	m.boundaryTrips.Inc()
}
