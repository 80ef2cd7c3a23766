package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultDurationBuckets spans 1ms to about 4m in powers of four, covering
// both a single stage on a small file and a whole run on a large one.
var DefaultDurationBuckets = prometheus.ExponentialBuckets(0.001, 4, 10)

// Config controls how a Registry registers its collectors.
type Config struct {
	// Enabled false makes NewRegistryWithConfig return a nil Registry,
	// which records nothing.
	Enabled bool

	// Registry receives every collector. Default: prometheus.DefaultRegisterer.
	// Two registries built on the same registerer collide.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name. Default: "chunkflow".
	Namespace string

	// Labels are constant labels on every series, beside the per-stage
	// "stage" label (or "outcome" for run metrics). Use them to tell
	// processes or hosts apart; they must not be named stage, kind or outcome.
	Labels prometheus.Labels

	// DurationBuckets are the upper bounds, in seconds, of the stage and
	// run duration histograms. Default: DefaultDurationBuckets.
	DurationBuckets []float64
}

// DefaultConfig returns the configuration NewRegistry uses.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Registry:        prometheus.DefaultRegisterer,
		Namespace:       "chunkflow",
		DurationBuckets: DefaultDurationBuckets,
	}
}
