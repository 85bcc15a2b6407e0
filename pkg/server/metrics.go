package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures server metric registration.
type MetricsConfig struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Buckets     []float64
	Registry    prometheus.Registerer
}

// MetricsOption adjusts MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace overrides the metric namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem overrides the metric subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels attaches constant labels to all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets overrides the event duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry registers metrics with a custom registry. Tests use this
// to avoid duplicate registration against the default one.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "effuse",
		Subsystem: "server",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the server's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	eventsTotal    *prometheus.CounterVec
	eventDuration  prometheus.Histogram
	patchFrames    prometheus.Counter
	patchesSent    prometheus.Counter
	activeSessions prometheus.Gauge
}

// NewMetrics registers the server metrics and returns the handle.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Client events processed, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		eventDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Event dispatch and flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patchFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_frames_total",
			Help:        "Patch frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Individual document mutations sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Currently connected sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) observeEvent(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(status).Inc()
	m.eventDuration.Observe(d.Seconds())
}

func (m *Metrics) recordPatchFrame(patches int) {
	if m == nil {
		return
	}
	m.patchFrames.Inc()
	m.patchesSent.Add(float64(patches))
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}
