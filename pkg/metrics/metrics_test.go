package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/chunkflow/internal/testutil"
)

func TestNewRegistryWithConfig_Disabled(t *testing.T) {
	if r := NewRegistryWithConfig(Config{Enabled: false}); r != nil {
		t.Fatal("disabled config should yield a nil registry")
	}
}

func TestNewRegistryWithConfig_Namespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "etl",
		Labels:    prometheus.Labels{"host": "a"},
	})
	r.SinkFlushed("WRITER", 10)

	expected := `
# HELP etl_sink_bytes_written_total Total bytes written to the output
# TYPE etl_sink_bytes_written_total counter
etl_sink_bytes_written_total{host="a",stage="WRITER"} 10
`
	err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "etl_sink_bytes_written_total")
	testutil.AssertNoError(t, err)
}

func TestNewRegistryWithConfig_DurationBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{
		Enabled:         true,
		Registry:        reg,
		Namespace:       "etl",
		DurationBuckets: []float64{1, 10},
	})
	r.StageFinished("READER", 2*time.Second)

	expected := `
# HELP etl_stage_duration_seconds Time a stage goroutine ran
# TYPE etl_stage_duration_seconds histogram
etl_stage_duration_seconds_bucket{stage="READER",le="1"} 0
etl_stage_duration_seconds_bucket{stage="READER",le="10"} 1
etl_stage_duration_seconds_bucket{stage="READER",le="+Inf"} 1
etl_stage_duration_seconds_sum{stage="READER"} 2
etl_stage_duration_seconds_count{stage="READER"} 1
`
	err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "etl_stage_duration_seconds")
	testutil.AssertNoError(t, err)

	// unset buckets fall back to the defaults
	reg = prometheus.NewRegistry()
	r = NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
	r.RunFinished(nil, time.Millisecond)
	families, err := reg.Gather()
	testutil.AssertNoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "chunkflow_pipeline_run_duration_seconds" {
			h := mf.GetMetric()[0].GetHistogram()
			testutil.AssertEqual(t, len(h.GetBucket()), len(DefaultDurationBuckets))
			return
		}
	}
	t.Fatal("run duration histogram not registered")
}

func TestRegistry_Recording(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.ChunkProcessed("READER", 0, 8)
	r.StageFailed("ROT", "failed to read")
	r.SetQueueDepth("ROT", 3)
	r.SetStoreEntries("READER", 2)
	r.SetStoreEntries("READER", -1)
	r.SinkFlushed("WRITER", 4)
	r.SinkFlushed("WRITER", 0)
	r.StageFinished("ROT", time.Millisecond)
	r.RunFinished(errors.New("boom"), time.Millisecond)

	testutil.AssertEqual(t, promtest.ToFloat64(r.StageBytesOut.WithLabelValues("READER")), 8.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.StageErrors.WithLabelValues("ROT", "failed to read")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.QueueDepth.WithLabelValues("ROT")), 3.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.StoreEntries.WithLabelValues("READER")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.SinkFlushes.WithLabelValues("WRITER")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.SinkBytesWritten.WithLabelValues("WRITER")), 4.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RunsTotal.WithLabelValues(OutcomeFailure)), 1.0)
	testutil.AssertEqual(t, promtest.CollectAndCount(r.StageDuration), 1)
}
