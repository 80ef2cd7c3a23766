package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// TagDictCap sets the LZMA2 dictionary capacity in bytes.
const TagDictCap = "DICT_CAP"

// MinDictCap is the smallest dictionary the xz format allows.
const MinDictCap = 4096

// XzEncoder compresses every chunk into a standalone xz stream.
type XzEncoder struct {
	config xz.WriterConfig
}

// NewXzEncoder creates an encoder with the given dictionary capacity.
func NewXzEncoder(module string, dictCap int) (*XzEncoder, error) {
	if err := validation.ValidateMin(module, TagDictCap, dictCap, MinDictCap); err != nil {
		return nil, err
	}
	cfg := xz.WriterConfig{DictCap: dictCap, CheckSum: xz.CRC32}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("xz config: %w", err)
	}
	return &XzEncoder{config: cfg}, nil
}

// NewXzStage is the stage.Factory of the xz stage.
func NewXzStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	dictCap, err := params.Int(TagDictCap)
	if err != nil {
		return nil, err
	}
	if err := params.Done(); err != nil {
		return nil, err
	}
	e, err := NewXzEncoder(deps.ID, dictCap)
	if err != nil {
		return nil, err
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, e)
}

// Transform implements stage.Transformer.
func (e *XzEncoder) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := e.config.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	return buf.Bytes(), nil
}

// XzDecoder decompresses one xz stream per chunk.
type XzDecoder struct{}

// NewUnxzStage is the stage.Factory of the unxz stage.
func NewUnxzStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	if err := params.Done(); err != nil {
		return nil, err
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, XzDecoder{})
}

// Transform implements stage.Transformer.
func (XzDecoder) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unxz: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unxz: %w", err)
	}
	return out, nil
}
