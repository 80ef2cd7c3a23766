// Package shift implements the byte rotation transform.
//
// Every chunk is zero-padded to a multiple of 8 bytes and rotated right by
// SINGLE_SHIFT*SHIFT_QUANTITY bytes. A total shift that reaches the padded
// length leaves the chunk unrotated.
package shift

import (
	"context"

	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// Stage configuration tags.
const (
	TagSingleShift   = "SINGLE_SHIFT"
	TagShiftQuantity = "SHIFT_QUANTITY"
)

// Unit is the word size in bytes: chunks are padded to it and single
// shifts are multiples of it.
const Unit = 8

// Rotator rotates chunks by a fixed amount.
type Rotator struct {
	shift int
}

// New validates the shift parameters and returns a Rotator.
func New(module string, singleShift, quantity int) (*Rotator, error) {
	if err := validation.ValidateMultipleOf(module, TagSingleShift, singleShift, Unit); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(module, TagShiftQuantity, quantity); err != nil {
		return nil, err
	}
	return &Rotator{shift: singleShift * quantity}, nil
}

// NewStage is the stage.Factory of the shift transform.
func NewStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	single, err := params.Int(TagSingleShift)
	if err != nil {
		return nil, err
	}
	quantity, err := params.Int(TagShiftQuantity)
	if err != nil {
		return nil, err
	}
	if err := params.Done(); err != nil {
		return nil, err
	}

	r, err := New(deps.ID, single, quantity)
	if err != nil {
		return nil, err
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, r)
}

// Transform implements stage.Transformer.
func (r *Rotator) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}
	return r.Rotate(data), nil
}

// Rotate pads data to a multiple of Unit and rotates it right.
func (r *Rotator) Rotate(data []byte) []byte {
	n := len(data)
	if rem := n % Unit; rem != 0 {
		n += Unit - rem
	}
	out := make([]byte, n)

	k := r.shift
	if k >= n {
		copy(out, data)
		return out
	}

	padded := make([]byte, n)
	copy(padded, data)
	copy(out[k:], padded[:n-k])
	copy(out[:k], padded[n-k:])
	return out
}
