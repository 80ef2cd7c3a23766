package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vnykmshr/chunkflow/internal/testutil"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantErrs int
		check    func(t *testing.T, cfg *cliConfig)
	}{
		{
			name: "chain",
			argv: []string{"chunkflow", "--chain", "chain.conf"},
			check: func(t *testing.T, cfg *cliConfig) {
				testutil.AssertEqual(t, cfg.Chain, "chain.conf")
				testutil.AssertEqual(t, cfg.Schedule, "")
			},
		},
		{
			name: "short flags",
			argv: []string{"chunkflow", "-c", "chain.conf", "-s", "@hourly"},
			check: func(t *testing.T, cfg *cliConfig) {
				testutil.AssertEqual(t, cfg.Chain, "chain.conf")
				testutil.AssertEqual(t, cfg.Schedule, "@hourly")
			},
		},
		{
			name:  "help needs no chain",
			argv:  []string{"chunkflow", "--help"},
			check: func(t *testing.T, cfg *cliConfig) { testutil.AssertEqual(t, cfg.Help, true) },
		},
		{name: "missing chain", argv: []string{"chunkflow"}, wantErrs: 1},
		{name: "bad schedule", argv: []string{"chunkflow", "--chain=c", "--schedule=often"}, wantErrs: 1},
		{name: "stray argument", argv: []string{"chunkflow", "--chain=c", "extra"}, wantErrs: 1},
		{name: "unknown flag", argv: []string{"chunkflow", "--bogus"}, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, errs := parseArgs(tt.argv)
			if len(errs) != tt.wantErrs {
				t.Fatalf("errors = %v, want %d", errs, tt.wantErrs)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestRun_Once(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileIn(t, dir, "in.txt", []byte("0123456789abcdef"))
	testutil.WriteFileIn(t, dir, "block.conf", []byte("BUFFER_SIZE=8\n"))
	testutil.WriteFileIn(t, dir, "digest.conf", []byte("ALGORITHM=sha256\n"))
	chain := testutil.WriteFileIn(t, dir, "chain.conf", []byte(strings.Join([]string{
		"INPUT=in.txt",
		"OUTPUT=out.txt",
		"CHAIN=READER->SUM->WRITER",
		"READER_NAME=reader",
		"READER_CONFIG=block.conf",
		"SUM_NAME=digest",
		"SUM_CONFIG=digest.conf",
		"WRITER_NAME=writer",
		"WRITER_CONFIG=block.conf",
	}, "\n")))
	t.Setenv("CHUNKFLOW_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	code := run([]string{"chunkflow", "--chain", chain}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitOK)
	testutil.AssertEqual(t, string(testutil.ReadFile(t, filepath.Join(dir, "out.txt"))), "0123456789abcdef")
}

func TestRun_Failures(t *testing.T) {
	t.Setenv("CHUNKFLOW_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer

	code := run([]string{"chunkflow"}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitUsage)
	if !strings.Contains(stderr.String(), "--chain is required") {
		t.Errorf("stderr = %q", stderr.String())
	}

	code = run([]string{"chunkflow", "--chain", filepath.Join(t.TempDir(), "missing.conf")}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitFailure)

	t.Setenv("CHUNKFLOW_STORE_BACKEND", "tape")
	code = run([]string{"chunkflow", "--chain", "chain.conf"}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitUsage)
}

func TestRun_ListStages(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"chunkflow", "--list-stages"}, &stdout, &stderr)
	testutil.AssertEqual(t, code, exitOK)
	for _, name := range []string{"reader", "shift", "zstd", "unxz", "digest", "writer"} {
		if !strings.Contains(stdout.String(), name+"\n") {
			t.Errorf("stage %s not listed in %q", name, stdout.String())
		}
	}
}

func TestMain(m *testing.M) {
	// settings come from the environment; start from a clean slate
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "CHUNKFLOW_") {
			os.Unsetenv(strings.SplitN(kv, "=", 2)[0])
		}
	}
	os.Exit(m.Run())
}
