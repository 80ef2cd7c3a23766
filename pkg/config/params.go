package config

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// Params holds the tags of one stage configuration file. Stages read the
// tags they require and then call Done, which rejects anything left over.
type Params struct {
	module string
	values map[string]string
	used   map[string]bool
}

// LoadParams reads the stage configuration at path. An empty path yields
// an empty Params, which is valid for stages without tags.
func LoadParams(path, module string) (*Params, error) {
	if path == "" {
		return NewParams(module, nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, cferrors.NewOperationError(cferrors.KindConfigRead, module, "Load", err).WithContext(path)
	}
	defer f.Close()
	return ParseParams(f, module)
}

// ParseParams reads a stage configuration from r.
func ParseParams(r io.Reader, module string) (*Params, error) {
	entries, err := readEntries(r, module)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.key] = e.value
	}
	return NewParams(module, values), nil
}

// NewParams builds Params from an in-memory tag set.
func NewParams(module string, values map[string]string) *Params {
	if values == nil {
		values = make(map[string]string)
	}
	return &Params{
		module: module,
		values: values,
		used:   make(map[string]bool, len(values)),
	}
}

// Module returns the stage name used in error messages.
func (p *Params) Module() string {
	return p.module
}

// String returns a required tag.
func (p *Params) String(tag string) (string, error) {
	v, ok := p.values[tag]
	if !ok {
		return "", grammarError(p.module, "missing required tag %s", tag)
	}
	p.used[tag] = true
	return v, nil
}

// StringOr returns an optional tag, or def when it is absent.
func (p *Params) StringOr(tag, def string) string {
	v, ok := p.values[tag]
	if !ok {
		return def
	}
	p.used[tag] = true
	return v
}

// Int returns a required integer tag. A value that is not a decimal
// integer is a grammar error; range checks belong to the caller.
func (p *Params) Int(tag string) (int, error) {
	v, err := p.String(tag)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, grammarError(p.module, "%s=%q is not an integer", tag, v)
	}
	return n, nil
}

// IntOr returns an optional integer tag, or def when it is absent.
func (p *Params) IntOr(tag string, def int) (int, error) {
	if _, ok := p.values[tag]; !ok {
		return def, nil
	}
	return p.Int(tag)
}

// Done reports tags that no call consumed.
func (p *Params) Done() error {
	var unknown []string
	for tag := range p.values {
		if !p.used[tag] {
			unknown = append(unknown, tag)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return grammarError(p.module, "unknown tags: %s", strings.Join(unknown, ", "))
}
