package stage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// Transformer is the per-chunk algorithm of a transform stage. It is
// called from the stage goroutine only, in id order.
type Transformer interface {
	Transform(ctx context.Context, id chunk.ID, p chunk.Payload) ([]byte, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, id chunk.ID, p chunk.Payload) ([]byte, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(ctx context.Context, id chunk.ID, p chunk.Payload) ([]byte, error) {
	return f(ctx, id, p)
}

// Finisher is implemented by transformers that act once the stream ended.
// Finish runs before the end marker is forwarded.
type Finisher interface {
	Finish(ctx context.Context, logger *zap.Logger) error
}

// Transform is a middle stage of a chain.
type Transform struct {
	producer
	consumer
	counters

	transformer Transformer
	logger      *zap.Logger
	metrics     *metrics.Registry
}

var (
	_ Producer = (*Transform)(nil)
	_ Consumer = (*Transform)(nil)
)

// NewTransform creates a transform stage accepting the given types and
// emitting every type.
func NewTransform(deps Deps, accepts []chunk.Type, t Transformer) (*Transform, error) {
	deps = deps.withDefaults()
	p, err := newProducer(deps, chunk.AllTypes)
	if err != nil {
		return nil, err
	}
	return &Transform{
		producer:    p,
		consumer:    newConsumer(deps, accepts),
		transformer: t,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}, nil
}

// ID implements Stage.
func (t *Transform) ID() string {
	return t.producer.id
}

// Stats implements Stage.
func (t *Transform) Stats() Stats {
	return t.snapshot()
}

// Run implements Stage.
func (t *Transform) Run(ctx context.Context) (err error) {
	defer t.close()
	defer func() {
		if err != nil {
			t.fail(rootCause(err))
		}
	}()

	if err := t.consumer.checkConnected(); err != nil {
		return err
	}
	if err := t.producer.checkConnected(); err != nil {
		return err
	}

	for {
		id, payload, end, err := t.next(ctx)
		if err != nil {
			return err
		}
		if end {
			if f, ok := t.transformer.(Finisher); ok {
				if err := f.Finish(ctx, t.logger); err != nil {
					return cferrors.NewOperationError(cferrors.KindFailedToWrite, t.ID(), "Finish", err)
				}
			}
			t.logger.Debug("end of stream", zap.Uint64("end", uint64(id)))
			return t.finish(id)
		}

		out, err := t.transformer.Transform(ctx, id, payload)
		if err != nil {
			return cferrors.NewOperationError(cferrors.KindFailedToWrite, t.ID(), "Transform", err).
				WithContext(fmt.Sprintf("chunk %d", id))
		}
		if err := t.emit(ctx, id, out); err != nil {
			return err
		}

		in := chunk.ByteLen(payload)
		t.add(in, len(out))
		t.metrics.ChunkProcessed(t.ID(), in, len(out))
		t.metrics.SetStoreEntries(t.ID(), t.store.Len())
	}
}
