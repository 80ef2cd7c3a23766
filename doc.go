/*
Package chunkflow runs chains of stages over a file, one goroutine per
stage, handing fixed-size chunks from each stage to the next.

A chain is described by a descriptor file naming the input, the output and
the stages between them:

	INPUT=data.bin
	OUTPUT=data.out
	READER_NAME=reader
	READER_CONFIG=block.conf
	PACK_NAME=zstd
	WRITER_NAME=writer
	WRITER_CONFIG=block.conf
	CHAIN=READER->PACK->WRITER

Pipeline (pkg/pipeline):
  - Registry: stage names to factories
  - Pipeline: assembles and runs one chain once
  - Runner: repeated runs with accumulated statistics

Stages (pkg/stage):
  - reader, writer: the source and sink
  - transform/shift: per-chunk byte rotation
  - transform/compress: zstd and xz framing
  - transform/digest: whole-stream checksums

Streaming (pkg/streaming):
  - chunk: payload types, stores, queues and mediators
  - writer: buffered block writer behind the sink

Supporting packages:
  - config: descriptor and stage parameter files
  - metrics: Prometheus collectors
  - ratelimit/bucket: input throttling
  - scheduling/scheduler: cron-driven runs

Example usage:

	import "github.com/vnykmshr/chunkflow/pkg/pipeline"

	p, err := pipeline.New("chain.conf")
	if err != nil {
		return err
	}
	result, err := p.Run(ctx)
*/
package chunkflow
