package compress

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// TagLevel selects the zstd encoder level.
const TagLevel = "LEVEL"

var zstdLevels = []string{"fastest", "default", "better", "best"}

// ZstdEncoder compresses every chunk into a standalone frame.
type ZstdEncoder struct {
	enc *zstd.Encoder
}

// NewZstdEncoder creates an encoder for the named level.
func NewZstdEncoder(module, level string) (*ZstdEncoder, error) {
	if err := validation.ValidateOneOf(module, TagLevel, level, zstdLevels...); err != nil {
		return nil, err
	}
	_, l := zstd.EncoderLevelFromString(level)
	// a single-goroutine stage gains nothing from encoder concurrency
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(l), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return &ZstdEncoder{enc: enc}, nil
}

// NewZstdStage is the stage.Factory of the zstd stage.
func NewZstdStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	level := params.StringOr(TagLevel, "default")
	if err := params.Done(); err != nil {
		return nil, err
	}
	e, err := NewZstdEncoder(deps.ID, level)
	if err != nil {
		return nil, err
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, e)
}

// Transform implements stage.Transformer.
func (e *ZstdEncoder) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}
	return e.enc.EncodeAll(data, nil), nil
}

// ZstdDecoder decompresses one frame per chunk.
type ZstdDecoder struct {
	dec *zstd.Decoder
}

// NewZstdDecoder creates a decoder.
func NewZstdDecoder() (*ZstdDecoder, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &ZstdDecoder{dec: dec}, nil
}

// NewUnzstdStage is the stage.Factory of the unzstd stage.
func NewUnzstdStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	if err := params.Done(); err != nil {
		return nil, err
	}
	d, err := NewZstdDecoder()
	if err != nil {
		return nil, cferrors.NewOperationError(cferrors.KindPipelineConstruction, deps.ID, "NewDecoder", err)
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, d)
}

// Transform implements stage.Transformer.
func (d *ZstdDecoder) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}
	out, err := d.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

// Finish implements stage.Finisher by releasing the decoder.
func (d *ZstdDecoder) Finish(context.Context, *zap.Logger) error {
	d.dec.Close()
	return nil
}
