package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// entry is one KEY=VALUE line.
type entry struct {
	key   string
	value string
	line  int
}

// readEntries scans the shared line grammar: one KEY=VALUE per line split on
// exactly one '=', surrounding blanks trimmed, blank lines and lines
// starting with '#' skipped. Keys must be unique.
func readEntries(r io.Reader, module string) ([]entry, error) {
	var (
		entries []entry
		seen    = make(map[string]int)
		sc      = bufio.NewScanner(r)
		lineNo  int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Count(line, "=") != 1 {
			return nil, grammarError(module, "line %d: expected KEY=VALUE, got %q", lineNo, line)
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, grammarError(module, "line %d: empty key", lineNo)
		}
		if first, dup := seen[key]; dup {
			return nil, grammarError(module, "line %d: %s already set on line %d", lineNo, key, first)
		}
		seen[key] = lineNo
		entries = append(entries, entry{key: key, value: value, line: lineNo})
	}
	if err := sc.Err(); err != nil {
		return nil, cferrors.NewOperationError(cferrors.KindConfigRead, module, "Parse", err)
	}
	return entries, nil
}

func grammarError(module, format string, args ...interface{}) error {
	return cferrors.NewOperationError(cferrors.KindConfigGrammar, module, "Parse", fmt.Errorf(format, args...))
}
