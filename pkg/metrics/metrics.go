// Package metrics provides Prometheus instrumentation for chunkflow pipelines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for run metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry holds all metric instances for a chunkflow process.
//
// The recording methods are safe to call on a nil *Registry, which makes
// metrics optional for every component.
type Registry struct {
	// Stage Metrics
	StageChunks   *prometheus.CounterVec
	StageBytesIn  *prometheus.CounterVec
	StageBytesOut *prometheus.CounterVec
	StageErrors   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Handoff Metrics
	QueueDepth   *prometheus.GaugeVec
	StoreEntries *prometheus.GaugeVec

	// Sink Metrics
	SinkFlushes      *prometheus.CounterVec
	SinkBytesWritten *prometheus.CounterVec

	// Run Metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by the chunkflow command.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	config := DefaultConfig()
	config.Registry = reg
	return NewRegistryWithConfig(config)
}

// NewRegistryWithConfig creates a metrics registry from config. It returns
// nil when metrics are disabled.
func NewRegistryWithConfig(config Config) *Registry {
	if !config.Enabled {
		return nil
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = DefaultConfig().Namespace
	}

	if len(config.DurationBuckets) == 0 {
		config.DurationBuckets = DefaultDurationBuckets
	}

	factory := promauto.With(config.Registry)
	ns := config.Namespace
	labels := config.Labels

	return &Registry{
		// Stage Metrics
		StageChunks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stage",
				Name:        "chunks_total",
				Help:        "Total number of chunks handled by a stage",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		StageBytesIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stage",
				Name:        "bytes_in_total",
				Help:        "Total bytes received by a stage",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		StageBytesOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stage",
				Name:        "bytes_out_total",
				Help:        "Total bytes emitted by a stage",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		StageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "stage",
				Name:        "errors_total",
				Help:        "Total number of abnormal stage exits",
				ConstLabels: labels,
			},
			[]string{"stage", "kind"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "stage",
				Name:        "duration_seconds",
				Help:        "Time a stage goroutine ran",
				Buckets:     config.DurationBuckets,
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		// Handoff Metrics
		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "handoff",
				Name:        "queue_depth",
				Help:        "Pending notifications waiting for a stage",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		StoreEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "handoff",
				Name:        "store_entries",
				Help:        "Chunks held in a stage's store awaiting pickup",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		// Sink Metrics
		SinkFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "sink",
				Name:        "flushes_total",
				Help:        "Total number of sink block flushes",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		SinkBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "sink",
				Name:        "bytes_written_total",
				Help:        "Total bytes written to the output",
				ConstLabels: labels,
			},
			[]string{"stage"},
		),

		// Run Metrics
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "runs_total",
				Help:        "Total number of pipeline runs",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "run_duration_seconds",
				Help:        "Wall time of a pipeline run",
				Buckets:     config.DurationBuckets,
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
	}
}

// ChunkProcessed records one chunk moving through stage.
func (r *Registry) ChunkProcessed(stage string, bytesIn, bytesOut int) {
	if r == nil {
		return
	}
	r.StageChunks.WithLabelValues(stage).Inc()
	r.StageBytesIn.WithLabelValues(stage).Add(float64(bytesIn))
	r.StageBytesOut.WithLabelValues(stage).Add(float64(bytesOut))
}

// StageFailed records an abnormal exit of stage.
func (r *Registry) StageFailed(stage, kind string) {
	if r == nil {
		return
	}
	r.StageErrors.WithLabelValues(stage, kind).Inc()
}

// StageFinished records how long stage ran.
func (r *Registry) StageFinished(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetQueueDepth records the pending notifications of stage.
func (r *Registry) SetQueueDepth(stage string, n int) {
	if r == nil {
		return
	}
	r.QueueDepth.WithLabelValues(stage).Set(float64(n))
}

// SetStoreEntries records the chunks held by stage. Negative counts come
// from backends that cannot report a size and are ignored.
func (r *Registry) SetStoreEntries(stage string, n int) {
	if r == nil || n < 0 {
		return
	}
	r.StoreEntries.WithLabelValues(stage).Set(float64(n))
}

// SinkFlushed records one flush of n bytes.
func (r *Registry) SinkFlushed(stage string, n int) {
	if r == nil {
		return
	}
	r.SinkFlushes.WithLabelValues(stage).Inc()
	r.SinkBytesWritten.WithLabelValues(stage).Add(float64(n))
}

// RunFinished records a completed pipeline run.
func (r *Registry) RunFinished(err error, d time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	r.RunsTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
