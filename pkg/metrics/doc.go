// Package metrics provides Prometheus instrumentation for chunkflow pipelines.
//
// # Overview
//
// A Registry tracks:
//   - Stages (chunks, bytes in and out, abnormal exits, run time)
//   - Handoff state (pending notifications, chunks awaiting pickup)
//   - The sink (block flushes, bytes written)
//   - Whole runs (outcome counts, durations)
//
// # Quick Start
//
// Hand a registry to the pipeline and expose it over HTTP:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	p, _ := pipeline.New("chain.cfg", pipeline.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// A nil *Registry is valid and records nothing, so metrics stay optional.
//
// # Custom Configuration
//
//	m := metrics.NewRegistryWithConfig(metrics.Config{
//		Enabled:         true,
//		Registry:        reg,
//		Namespace:       "etl",
//		Labels:          prometheus.Labels{"host": "worker-1"},
//		DurationBuckets: []float64{0.01, 0.1, 1, 10, 60},
//	})
//
// # Available Metrics
//
//   - chunkflow_stage_chunks_total{stage}
//   - chunkflow_stage_bytes_in_total{stage}
//   - chunkflow_stage_bytes_out_total{stage}
//   - chunkflow_stage_errors_total{stage,kind}
//   - chunkflow_stage_duration_seconds{stage}
//   - chunkflow_handoff_queue_depth{stage}
//   - chunkflow_handoff_store_entries{stage}
//   - chunkflow_sink_flushes_total{stage}
//   - chunkflow_sink_bytes_written_total{stage}
//   - chunkflow_pipeline_runs_total{outcome}
//   - chunkflow_pipeline_run_duration_seconds{outcome}
package metrics
