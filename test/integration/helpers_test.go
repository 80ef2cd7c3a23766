// Package integration runs whole chains against real files, exercising the
// descriptor parser, the assembler, every built-in stage and the store
// backends together.
package integration

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/vnykmshr/chunkflow/internal/testutil"
)

type workspace struct {
	t   *testing.T
	dir string
}

func newWorkspace(t *testing.T) *workspace {
	return &workspace{t: t, dir: t.TempDir()}
}

func (w *workspace) write(name string, lines ...string) string {
	w.t.Helper()
	return testutil.WriteFileIn(w.t, w.dir, name, []byte(strings.Join(lines, "\n")+"\n"))
}

func (w *workspace) writeBytes(name string, data []byte) string {
	w.t.Helper()
	return testutil.WriteFileIn(w.t, w.dir, name, data)
}

func (w *workspace) read(name string) []byte {
	w.t.Helper()
	return testutil.ReadFile(w.t, filepath.Join(w.dir, name))
}

// chain writes a descriptor for READER -> ids... -> WRITER where every
// stage is described as "ID=name" or "ID=name:config-file".
func (w *workspace) chain(name, input, output string, block int, stages ...string) string {
	w.t.Helper()
	w.write("block.conf", "BUFFER_SIZE="+strconv.Itoa(block))

	ids := []string{"READER"}
	lines := []string{
		"INPUT=" + input,
		"OUTPUT=" + output,
		"READER_NAME=reader",
		"READER_CONFIG=block.conf",
		"WRITER_NAME=writer",
		"WRITER_CONFIG=block.conf",
	}
	for _, s := range stages {
		id, rest, _ := strings.Cut(s, "=")
		stageName, conf, hasConf := strings.Cut(rest, ":")
		ids = append(ids, id)
		lines = append(lines, id+"_NAME="+stageName)
		if hasConf {
			lines = append(lines, id+"_CONFIG="+conf)
		}
	}
	ids = append(ids, "WRITER")
	lines = append(lines, "CHAIN="+strings.Join(ids, "->"))
	return w.write(name, lines...)
}

func pad(data []byte, block int) []byte {
	out := append([]byte(nil), data...)
	if rem := len(out) % block; rem != 0 {
		out = append(out, make([]byte, block-rem)...)
	}
	return out
}
