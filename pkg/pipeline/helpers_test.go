package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vnykmshr/chunkflow/internal/testutil"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// chainDir is a temp directory holding a descriptor, its stage configs and
// the input file.
type chainDir struct {
	t   *testing.T
	dir string
}

func newChainDir(t *testing.T, input []byte) *chainDir {
	t.Helper()
	c := &chainDir{t: t, dir: t.TempDir()}
	testutil.WriteFileIn(t, c.dir, "in.bin", input)
	return c
}

// config writes a stage configuration file and returns its base name.
func (c *chainDir) config(name string, lines ...string) string {
	c.t.Helper()
	testutil.WriteFileIn(c.t, c.dir, name, []byte(strings.Join(lines, "\n")+"\n"))
	return name
}

// descriptor writes chain.conf with INPUT and OUTPUT preset.
func (c *chainDir) descriptor(lines ...string) string {
	c.t.Helper()
	all := append([]string{"INPUT=in.bin", "OUTPUT=out.bin"}, lines...)
	return testutil.WriteFileIn(c.t, c.dir, "chain.conf", []byte(strings.Join(all, "\n")+"\n"))
}

func (c *chainDir) output() []byte {
	c.t.Helper()
	return testutil.ReadFile(c.t, filepath.Join(c.dir, "out.bin"))
}

// readerWriter returns descriptor lines for READER and WRITER with the
// given block size.
func (c *chainDir) readerWriter(block string) []string {
	c.t.Helper()
	c.config("block.conf", "BUFFER_SIZE="+block)
	return []string{
		"READER_NAME=reader",
		"READER_CONFIG=block.conf",
		"WRITER_NAME=writer",
		"WRITER_CONFIG=block.conf",
	}
}

func pad(data []byte, block int) []byte {
	out := append([]byte(nil), data...)
	if rem := len(out) % block; rem != 0 {
		out = append(out, make([]byte, block-rem)...)
	}
	return out
}

var errBoom = errors.New("boom")

// testRegistry adds stages that misbehave on purpose.
func testRegistry() *Registry {
	r := DefaultRegistry()
	r.MustRegister("picky", func(deps stage.Deps, params *config.Params) (stage.Stage, error) {
		if err := params.Done(); err != nil {
			return nil, err
		}
		// accepts nothing, so no producer can feed it
		return stage.NewTransform(deps, nil, stage.TransformerFunc(passthrough))
	})
	r.MustRegister("fail", func(deps stage.Deps, params *config.Params) (stage.Stage, error) {
		if err := params.Done(); err != nil {
			return nil, err
		}
		return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, stage.TransformerFunc(
			func(ctx context.Context, id chunk.ID, p chunk.Payload) ([]byte, error) {
				if id == 1 {
					return nil, errBoom
				}
				return passthrough(ctx, id, p)
			}))
	})
	r.MustRegister("pass", func(deps stage.Deps, params *config.Params) (stage.Stage, error) {
		if err := params.Done(); err != nil {
			return nil, err
		}
		return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, stage.TransformerFunc(passthrough))
	})
	r.MustRegister("broken", func(stage.Deps, *config.Params) (stage.Stage, error) {
		return nil, errBoom
	})
	return r
}

func passthrough(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	return chunk.AsBytes(p)
}
