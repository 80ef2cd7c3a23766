package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/ratelimit/bucket"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

const (
	// TagBufferSize is the block size tag of the reader and writer stages.
	TagBufferSize = "BUFFER_SIZE"
	// TagRateLimit caps the reader's input throughput in bytes per second.
	// Zero or absent means unlimited.
	TagRateLimit = "RATE_LIMIT"
)

// Reader is the source stage. It cuts its input into fixed-size blocks,
// zero-padding the last one, and numbers them from 0.
type Reader struct {
	producer
	counters

	blockSize int
	input     io.Reader
	limiter   *bucket.Limiter
	logger    *zap.Logger
	metrics   *metrics.Registry
}

var _ Source = (*Reader)(nil)

// NewReaderStage is the Factory of the reader stage.
func NewReaderStage(deps Deps, params *config.Params) (Stage, error) {
	size, err := params.Int(TagBufferSize)
	if err != nil {
		return nil, err
	}
	rate, err := params.IntOr(TagRateLimit, 0)
	if err != nil {
		return nil, err
	}
	if err := params.Done(); err != nil {
		return nil, err
	}
	r, err := NewReader(deps, size)
	if err != nil {
		return nil, err
	}
	if err := r.SetRateLimit(rate); err != nil {
		return nil, err
	}
	return r, nil
}

// NewReader creates a reader emitting blocks of blockSize bytes.
func NewReader(deps Deps, blockSize int) (*Reader, error) {
	deps = deps.withDefaults()
	if err := validation.ValidatePositive(deps.ID, TagBufferSize, blockSize); err != nil {
		return nil, err
	}
	p, err := newProducer(deps, chunk.AllTypes)
	if err != nil {
		return nil, err
	}
	return &Reader{
		producer:  p,
		blockSize: blockSize,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}, nil
}

// ID implements Stage.
func (r *Reader) ID() string {
	return r.id
}

// SetRateLimit caps input throughput at bytesPerSec. Zero removes the cap.
// Bursts are limited to one block.
func (r *Reader) SetRateLimit(bytesPerSec int) error {
	if err := validation.ValidateNonNegative(r.id, TagRateLimit, bytesPerSec); err != nil {
		return err
	}
	if bytesPerSec == 0 {
		r.limiter = nil
		return nil
	}
	lim, err := bucket.New(bucket.Config{Rate: bytesPerSec, Burst: r.blockSize})
	if err != nil {
		return err
	}
	r.limiter = lim
	return nil
}

// SetInput implements Source.
func (r *Reader) SetInput(in io.Reader) {
	r.input = in
}

// Stats implements Stage.
func (r *Reader) Stats() Stats {
	return r.snapshot()
}

// Run implements Stage.
func (r *Reader) Run(ctx context.Context) (err error) {
	if err := r.checkConnected(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			r.fail(err)
		}
	}()

	if r.input == nil {
		return cferrors.NewOperationError(cferrors.KindInvalidInputStream, r.id, "Run", errors.New("no input attached"))
	}
	if c, ok := r.input.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				r.logger.Warn("closing input", zap.Error(cerr))
			}
		}()
	}
	if f, ok := r.input.(*os.File); ok {
		optimizeInput(f, r.logger)
	}

	var id chunk.ID
	for {
		if err := ctx.Err(); err != nil {
			return cferrors.NewOperationError(cferrors.KindSynchronization, r.id, "Read", err)
		}

		if r.limiter != nil {
			if err := r.limiter.WaitN(ctx, r.blockSize); err != nil {
				return cferrors.NewOperationError(cferrors.KindSynchronization, r.id, "Read", err)
			}
		}

		block := make([]byte, r.blockSize)
		n, rerr := io.ReadFull(r.input, block)
		if rerr == io.EOF {
			break
		}
		if rerr != nil && rerr != io.ErrUnexpectedEOF {
			return cferrors.NewOperationError(cferrors.KindFailedToRead, r.id, "Read", rerr).
				WithContext(fmt.Sprintf("chunk %d", id))
		}

		// a short final block keeps its zero padding
		if err := r.emit(ctx, id, block); err != nil {
			return err
		}
		r.add(n, len(block))
		r.metrics.ChunkProcessed(r.id, n, len(block))
		r.metrics.SetStoreEntries(r.id, r.store.Len())
		id++

		if rerr == io.ErrUnexpectedEOF {
			break
		}
	}

	r.logger.Debug("end of input", zap.Uint64("end", uint64(id)))
	return r.finish(id)
}
