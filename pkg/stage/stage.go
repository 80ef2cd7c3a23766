package stage

import (
	"context"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vnykmshr/chunkflow/internal/logging"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// Stage is one element of a chain. Run executes the stage on the calling
// goroutine until its end-of-stream marker has been handled or it fails.
type Stage interface {
	ID() string
	Run(ctx context.Context) error
	Stats() Stats
}

// Producer is a stage with a downstream neighbour.
type Producer interface {
	Stage

	// Emits lists the representations the stage can hand out.
	Emits() []chunk.Type

	// Mediator binds the stage's store to one of the emitted types.
	Mediator(t chunk.Type) (chunk.Mediator, error)

	// SetNotifier registers the single downstream consumer.
	SetNotifier(n chunk.Notifier) error
}

// Consumer is a stage with an upstream neighbour.
type Consumer interface {
	Stage

	// Accepts lists the representations the stage can process, most
	// preferred first.
	Accepts() []chunk.Type

	// SetProducer negotiates a representation with p, binds a mediator and
	// registers the stage's queue as p's notifier.
	SetProducer(p Producer) error
}

// Source is the first stage of a chain.
type Source interface {
	Producer
	SetInput(r io.Reader)
}

// Sink is the last stage of a chain.
type Sink interface {
	Consumer
	SetOutput(w io.Writer)
}

// Factory builds a stage from its configuration. Implementations read the
// tags they need from params and call params.Done.
type Factory func(deps Deps, params *config.Params) (Stage, error)

// Deps carries what every stage needs from the assembler.
type Deps struct {
	// ID is the chain identifier of the stage.
	ID string

	// Logger is already named after the stage.
	Logger *zap.Logger

	// Metrics may be nil.
	Metrics *metrics.Registry

	// Stores creates the stage's chunk store. Defaults to memory stores.
	Stores chunk.StoreFactory
}

func (d Deps) withDefaults() Deps {
	d.Logger = logging.OrNop(d.Logger)
	if d.Stores == nil {
		d.Stores = chunk.MemoryStores
	}
	return d
}

// Stats holds per-stage counters.
type Stats struct {
	// Chunks is the number of real chunks handled, the end marker excluded.
	Chunks int64
	// BytesIn is the number of bytes read from the input or upstream.
	BytesIn int64
	// BytesOut is the number of bytes handed downstream or written.
	BytesOut int64
}

type counters struct {
	chunks   atomic.Int64
	bytesIn  atomic.Int64
	bytesOut atomic.Int64
}

func (c *counters) add(in, out int) {
	c.chunks.Add(1)
	c.bytesIn.Add(int64(in))
	c.bytesOut.Add(int64(out))
}

func (c *counters) snapshot() Stats {
	return Stats{
		Chunks:   c.chunks.Load(),
		BytesIn:  c.bytesIn.Load(),
		BytesOut: c.bytesOut.Load(),
	}
}
