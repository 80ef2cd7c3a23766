package shift

import (
	"bytes"
	"context"
	"testing"

	"github.com/vnykmshr/chunkflow/internal/testutil"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name     string
		single   int
		quantity int
		input    []byte
		want     []byte
	}{
		{
			name:     "one unit",
			single:   8,
			quantity: 1,
			input:    seq(16),
			want:     append(seq(16)[8:], seq(16)[:8]...),
		},
		{
			name:     "zero quantity",
			single:   8,
			quantity: 0,
			input:    seq(16),
			want:     seq(16),
		},
		{
			name:     "shift equals length",
			single:   16,
			quantity: 1,
			input:    seq(16),
			want:     seq(16),
		},
		{
			name:     "shift beyond length",
			single:   8,
			quantity: 5,
			input:    seq(16),
			want:     seq(16),
		},
		{
			name:     "padding then rotation",
			single:   8,
			quantity: 1,
			input:    seq(12),
			want:     []byte{9, 10, 11, 12, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			name:     "short chunk padded only",
			single:   8,
			quantity: 1,
			input:    []byte{1, 2, 3},
			want:     []byte{1, 2, 3, 0, 0, 0, 0, 0},
		},
		{
			name:     "empty chunk",
			single:   8,
			quantity: 1,
			input:    nil,
			want:     []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("shift", tt.single, tt.quantity)
			testutil.AssertNoError(t, err)
			testutil.AssertBytes(t, r.Rotate(tt.input), tt.want)
		})
	}
}

func TestRotate_DoesNotAlias(t *testing.T) {
	r, _ := New("shift", 8, 0)
	in := seq(8)
	out := r.Rotate(in)
	out[0] = 99
	testutil.AssertEqual(t, in[0], byte(1))
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		single   int
		quantity int
	}{
		{"single not a multiple", 12, 1},
		{"single below unit", 4, 1},
		{"single zero", 0, 1},
		{"negative quantity", 8, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("shift", tt.single, tt.quantity)
			testutil.AssertEqual(t, cferrors.KindOf(err), cferrors.KindConfigSemantic)
		})
	}
}

func TestNewStage(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   cferrors.Kind
	}{
		{"missing quantity", map[string]string{"SINGLE_SHIFT": "8"}, cferrors.KindConfigGrammar},
		{"unknown tag", map[string]string{"SINGLE_SHIFT": "8", "SHIFT_QUANTITY": "1", "MODE": "left"}, cferrors.KindConfigGrammar},
		{"bad unit", map[string]string{"SINGLE_SHIFT": "6", "SHIFT_QUANTITY": "1"}, cferrors.KindConfigSemantic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStage(stage.Deps{ID: "ROT"}, config.NewParams("shift", tt.values))
			testutil.AssertEqual(t, cferrors.KindOf(err), tt.want)
		})
	}

	s, err := NewStage(stage.Deps{ID: "ROT"}, config.NewParams("shift", map[string]string{
		"SINGLE_SHIFT": "8", "SHIFT_QUANTITY": "2",
	}))
	testutil.AssertNoError(t, err)
	c, ok := s.(stage.Consumer)
	if !ok {
		t.Fatalf("shift stage is %T, want a Consumer", s)
	}
	testutil.AssertEqual(t, len(c.Accepts()), 1)
	testutil.AssertEqual(t, c.Accepts()[0], chunk.Bytes)
}

func TestTransform(t *testing.T) {
	r, _ := New("shift", 8, 1)
	out, err := r.Transform(context.Background(), 0, chunk.ByteData(seq(16)))
	testutil.AssertNoError(t, err)
	if !bytes.Equal(out, r.Rotate(seq(16))) {
		t.Fatalf("Transform and Rotate disagree: %v", out)
	}
}
