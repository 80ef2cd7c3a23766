package compress

import (
	"bytes"
	"context"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/vnykmshr/chunkflow/internal/testutil"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

var sample = bytes.Repeat([]byte("a chunk of text that compresses well. "), 64)

func TestZstd_RoundTrip(t *testing.T) {
	for _, level := range zstdLevels {
		t.Run(level, func(t *testing.T) {
			enc, err := NewZstdEncoder("Z", level)
			testutil.AssertNoError(t, err)
			dec, err := NewZstdDecoder()
			testutil.AssertNoError(t, err)
			defer dec.dec.Close()

			ctx := context.Background()
			packed, err := enc.Transform(ctx, 0, chunk.ByteData(sample))
			testutil.AssertNoError(t, err)
			if len(packed) >= len(sample) {
				t.Fatalf("compressed %d bytes into %d", len(sample), len(packed))
			}

			out, err := dec.Transform(ctx, 0, chunk.ByteData(packed))
			testutil.AssertNoError(t, err)
			testutil.AssertBytes(t, out, sample)
		})
	}
}

func TestZstd_ConcatenatedFramesFormOneStream(t *testing.T) {
	enc, _ := NewZstdEncoder("Z", "fastest")
	ctx := context.Background()

	var file []byte
	for i, part := range [][]byte{[]byte("first "), []byte("second")} {
		frame, err := enc.Transform(ctx, chunk.ID(i), chunk.ByteData(part))
		testutil.AssertNoError(t, err)
		file = append(file, frame...)
	}

	dec, err := zstd.NewReader(nil)
	testutil.AssertNoError(t, err)
	defer dec.Close()
	out, err := dec.DecodeAll(file, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(out), "first second")
}

func TestZstd_CorruptInput(t *testing.T) {
	dec, _ := NewZstdDecoder()
	defer dec.dec.Close()
	_, err := dec.Transform(context.Background(), 0, chunk.ByteData("not zstd"))
	testutil.AssertError(t, err)
}

func TestXz_RoundTrip(t *testing.T) {
	enc, err := NewXzEncoder("X", 1<<16)
	testutil.AssertNoError(t, err)

	ctx := context.Background()
	packed, err := enc.Transform(ctx, 0, chunk.ByteData(sample))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(packed)%4, 0)

	out, err := XzDecoder{}.Transform(ctx, 0, chunk.ByteData(packed))
	testutil.AssertNoError(t, err)
	testutil.AssertBytes(t, out, sample)

	// the stream is readable by a plain xz reader
	r, err := xz.NewReader(bytes.NewReader(packed))
	testutil.AssertNoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	testutil.AssertNoError(t, err)
	testutil.AssertBytes(t, buf.Bytes(), sample)
}

func TestXz_CorruptInput(t *testing.T) {
	_, err := XzDecoder{}.Transform(context.Background(), 0, chunk.ByteData("not xz at all"))
	testutil.AssertError(t, err)
}

func TestStages(t *testing.T) {
	tests := []struct {
		name    string
		factory stage.Factory
		values  map[string]string
		want    cferrors.Kind
	}{
		{"zstd default level", NewZstdStage, nil, cferrors.KindUnknown},
		{"zstd best", NewZstdStage, map[string]string{"LEVEL": "best"}, cferrors.KindUnknown},
		{"zstd unknown level", NewZstdStage, map[string]string{"LEVEL": "ultra"}, cferrors.KindConfigSemantic},
		{"zstd unknown tag", NewZstdStage, map[string]string{"WINDOW": "1"}, cferrors.KindConfigGrammar},
		{"unzstd", NewUnzstdStage, nil, cferrors.KindUnknown},
		{"unzstd rejects tags", NewUnzstdStage, map[string]string{"LEVEL": "best"}, cferrors.KindConfigGrammar},
		{"xz", NewXzStage, map[string]string{"DICT_CAP": "65536"}, cferrors.KindUnknown},
		{"xz missing dict", NewXzStage, nil, cferrors.KindConfigGrammar},
		{"xz small dict", NewXzStage, map[string]string{"DICT_CAP": "1024"}, cferrors.KindConfigSemantic},
		{"unxz", NewUnxzStage, nil, cferrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.factory(stage.Deps{ID: "C"}, config.NewParams(tt.name, tt.values))
			if tt.want == cferrors.KindUnknown {
				testutil.AssertNoError(t, err)
				if _, ok := s.(stage.Consumer); !ok {
					t.Fatalf("stage is %T, want a transform", s)
				}
				return
			}
			testutil.AssertEqual(t, cferrors.KindOf(err), tt.want)
		})
	}
}
