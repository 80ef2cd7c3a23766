package stage

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
	"github.com/vnykmshr/chunkflow/pkg/streaming/writer"
)

// Writer is the sink stage. It re-blocks incoming chunks into writes of
// exactly BUFFER_SIZE bytes and flushes the remainder once at end of stream.
type Writer struct {
	consumer
	counters

	blockSize int
	output    io.Writer
	logger    *zap.Logger
	metrics   *metrics.Registry
	onFlush   func(n int)
	stats     writer.Stats
}

var _ Sink = (*Writer)(nil)

// NewWriterStage is the Factory of the writer stage.
func NewWriterStage(deps Deps, params *config.Params) (Stage, error) {
	size, err := params.Int(TagBufferSize)
	if err != nil {
		return nil, err
	}
	if err := params.Done(); err != nil {
		return nil, err
	}
	return NewWriter(deps, size)
}

// NewWriter creates a writer with the given block size.
func NewWriter(deps Deps, blockSize int) (*Writer, error) {
	deps = deps.withDefaults()
	if err := validation.ValidatePositive(deps.ID, TagBufferSize, blockSize); err != nil {
		return nil, err
	}
	return &Writer{
		consumer:  newConsumer(deps, chunk.AllTypes),
		blockSize: blockSize,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}, nil
}

// ID implements Stage.
func (w *Writer) ID() string {
	return w.id
}

// SetOutput implements Sink.
func (w *Writer) SetOutput(out io.Writer) {
	w.output = out
}

// OnFlush registers a callback run after every block flush. It must be
// set before Run.
func (w *Writer) OnFlush(fn func(n int)) {
	w.onFlush = fn
}

// Stats implements Stage.
func (w *Writer) Stats() Stats {
	return w.snapshot()
}

// WriterStats returns the block writer statistics of the last Run.
func (w *Writer) WriterStats() writer.Stats {
	return w.stats
}

// Run implements Stage.
func (w *Writer) Run(ctx context.Context) (err error) {
	if err := w.checkConnected(); err != nil {
		return err
	}
	defer w.close()

	if w.output == nil {
		return cferrors.NewOperationError(cferrors.KindInvalidOutputStream, w.id, "Run", errors.New("no output attached"))
	}
	if c, ok := w.output.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cferrors.NewOperationError(cferrors.KindFailedToWrite, w.id, "Close", cerr)
			}
		}()
	}

	bw := writer.NewWithConfig(w.output, writer.Config{
		BlockSize: w.blockSize,
		OnFlush: func(n int, _ time.Duration) {
			w.metrics.SinkFlushed(w.id, n)
			if w.onFlush != nil {
				w.onFlush(n)
			}
		},
	})
	defer func() {
		w.stats = bw.Stats()
	}()

	for {
		_, payload, end, err := w.next(ctx)
		if err != nil {
			if dropped := bw.Abort(); dropped > 0 {
				w.logger.Warn("discarding unflushed tail", zap.Int("bytes", dropped))
			}
			return err
		}
		if end {
			if err := bw.Close(); err != nil {
				return cferrors.NewOperationError(cferrors.KindFailedToWrite, w.id, "Flush", err)
			}
			w.logger.Debug("end of stream", zap.Int64("bytes", bw.Stats().BytesWritten))
			return nil
		}

		data, err := chunk.AsBytes(payload)
		if err != nil {
			return cferrors.NewOperationError(cferrors.KindFailedToRead, w.id, "Convert", err)
		}
		if err := bw.Write(data); err != nil {
			bw.Abort()
			return cferrors.NewOperationError(cferrors.KindFailedToWrite, w.id, "Write", err)
		}
		w.add(len(data), len(data))
		w.metrics.ChunkProcessed(w.id, len(data), len(data))
	}
}
