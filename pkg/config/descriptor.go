package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
)

// Descriptor keys and chain conventions.
const (
	KeyInput  = "INPUT"
	KeyOutput = "OUTPUT"
	KeyChain  = "CHAIN"

	NameSuffix   = "_NAME"
	ConfigSuffix = "_CONFIG"

	ChainSeparator = "->"

	// SourceID and SinkID are the designated first and last chain elements.
	SourceID = "READER"
	SinkID   = "WRITER"
)

const descriptorModule = "descriptor"

// StageRef is one chain element resolved from the descriptor.
type StageRef struct {
	// ID is the chain identifier, unique within the chain.
	ID string
	// Name is the registry key of the stage implementation.
	Name string
	// ConfigPath is the stage configuration file, empty when none is given.
	ConfigPath string
}

// Descriptor is a parsed chain descriptor.
type Descriptor struct {
	Input  string
	Output string
	Stages []StageRef
}

// LoadDescriptor reads the chain descriptor at path. Relative paths inside
// it are resolved against the directory of path.
func LoadDescriptor(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cferrors.NewOperationError(cferrors.KindConfigRead, descriptorModule, "Load", err).WithContext(path)
	}
	defer f.Close()
	return ParseDescriptor(f, filepath.Dir(path))
}

// ParseDescriptor reads a chain descriptor from r, resolving relative paths
// against dir.
func ParseDescriptor(r io.Reader, dir string) (*Descriptor, error) {
	entries, err := readEntries(r, descriptorModule)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(entries))
	for _, e := range entries {
		switch {
		case e.key == KeyInput, e.key == KeyOutput, e.key == KeyChain:
		case strings.HasSuffix(e.key, NameSuffix) && len(e.key) > len(NameSuffix):
		case strings.HasSuffix(e.key, ConfigSuffix) && len(e.key) > len(ConfigSuffix):
		default:
			return nil, grammarError(descriptorModule, "line %d: unknown key %s", e.line, e.key)
		}
		values[e.key] = e.value
	}

	for _, key := range []string{KeyInput, KeyOutput, KeyChain} {
		if _, ok := values[key]; !ok {
			return nil, grammarError(descriptorModule, "missing required key %s", key)
		}
	}

	d := &Descriptor{
		Input:  resolve(dir, values[KeyInput]),
		Output: resolve(dir, values[KeyOutput]),
	}
	if err := validation.ValidateNotEmpty(descriptorModule, KeyInput, d.Input); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty(descriptorModule, KeyOutput, d.Output); err != nil {
		return nil, err
	}

	ids, err := parseChain(values[KeyChain])
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		name, ok := values[id+NameSuffix]
		if !ok || name == "" {
			return nil, grammarError(descriptorModule, "missing required key %s%s", id, NameSuffix)
		}
		d.Stages = append(d.Stages, StageRef{
			ID:         id,
			Name:       name,
			ConfigPath: resolve(dir, values[id+ConfigSuffix]),
		})
	}
	return d, nil
}

func parseChain(chain string) ([]string, error) {
	parts := strings.Split(chain, ChainSeparator)
	ids := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		id := strings.TrimSpace(p)
		if id == "" {
			return nil, grammarError(descriptorModule, "empty element in %s=%q", KeyChain, chain)
		}
		if seen[id] {
			return nil, cferrors.NewValidationError(descriptorModule, KeyChain, chain, "stage "+id+" appears more than once")
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if len(ids) < 2 {
		return nil, cferrors.NewValidationError(descriptorModule, KeyChain, chain, "needs at least a source and a sink").
			WithHint(SourceID + ChainSeparator + SinkID)
	}
	if ids[0] != SourceID {
		return nil, cferrors.NewValidationError(descriptorModule, KeyChain, chain, "must start with "+SourceID)
	}
	if ids[len(ids)-1] != SinkID {
		return nil, cferrors.NewValidationError(descriptorModule, KeyChain, chain, "must end with "+SinkID)
	}
	return ids, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
