package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/stage/transform/compress"
	"github.com/vnykmshr/chunkflow/pkg/stage/transform/digest"
	"github.com/vnykmshr/chunkflow/pkg/stage/transform/shift"
)

// Registry maps the <id>_NAME values of a chain descriptor to stage
// factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]stage.Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]stage.Factory)}
}

// DefaultRegistry returns a new registry holding every built-in stage:
// reader, writer, shift, zstd, unzstd, xz, unxz and digest.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("reader", stage.NewReaderStage)
	r.MustRegister("writer", stage.NewWriterStage)
	r.MustRegister("shift", shift.NewStage)
	r.MustRegister("zstd", compress.NewZstdStage)
	r.MustRegister("unzstd", compress.NewUnzstdStage)
	r.MustRegister("xz", compress.NewXzStage)
	r.MustRegister("unxz", compress.NewUnxzStage)
	r.MustRegister("digest", digest.NewStage)
	return r
}

// Register adds a factory under name. Names are unique.
func (r *Registry) Register(name string, f stage.Factory) error {
	if name == "" {
		return fmt.Errorf("stage name cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("factory for %q cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("stage %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, f stage.Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (stage.Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
