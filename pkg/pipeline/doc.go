/*
Package pipeline assembles and runs chains described by a chain descriptor.

A descriptor names an input file, an output file and a chain of stage ids.
Each id maps to a registered stage implementation and an optional stage
configuration file:

	INPUT=in.bin
	OUTPUT=out.bin
	CHAIN=READER->SHIFT->WRITER
	READER_NAME=reader
	READER_CONFIG=reader.conf
	SHIFT_NAME=shift
	SHIFT_CONFIG=shift.conf
	WRITER_NAME=writer
	WRITER_CONFIG=writer.conf

# Quick Start

	p, err := pipeline.New("chain.conf", pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := p.Assemble(ctx); err != nil {
		return err // nothing has started
	}
	result, err := p.Run(ctx)

Assemble builds every stage, negotiates a representation between each pair
of neighbours and opens the files. Any failure there is reported with its
category (see pkg/common/errors) before a single goroutine starts.

Run starts one goroutine per stage and blocks until all of them returned.
When a stage fails the stages after it stop with an upstream failure and
the stages before it stop on their next notification; Result.Error holds
only the errors of the stages that failed first.

# Registry

DefaultRegistry knows the built-in stages:

	reader   BUFFER_SIZE, RATE_LIMIT (optional bytes per second)
	writer   BUFFER_SIZE
	shift    SINGLE_SHIFT, SHIFT_QUANTITY
	zstd     LEVEL (optional: fastest, default, better, best)
	unzstd
	xz       DICT_CAP
	unxz
	digest   ALGORITHM (sha256, blake2b, murmur3)

Custom stages are added with Register and selected with WithRegistry.

# Monitoring

	p, _ := pipeline.New(path,
		pipeline.WithMetrics(metrics.DefaultRegistry),
		pipeline.WithHooks(pipeline.Hooks{
			OnStageComplete: func(r pipeline.StageResult) {
				log.Printf("%s: %d chunks in %v", r.StageID, r.Stats.Chunks, r.Duration)
			},
		}),
	)

# Repeated runs

A Pipeline runs once. Runner assembles a fresh pipeline on every call and
accumulates Stats across runs; it is what the scheduler drives.
*/
package pipeline
