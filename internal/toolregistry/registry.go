package toolregistry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/ShayCichocki/tandem/internal/logging"
)

// Registry maps tool names to tools. Names are unique at any instant;
// re-registering a name replaces the previous tool.
//
// Registration is expected to happen at startup before lookups fan out to
// workers, but the registry is safe for concurrent use either way.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.OrNop(l)
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use.
// Prefer constructing a registry with New and passing it explicitly.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// Register adds a tool under name, replacing any tool already registered
// under the same name.
func (r *Registry) Register(name string, tool Tool) error {
	if name == "" {
		return goerr.Wrap(ErrInvalidTool, "tool name is required")
	}
	if tool == nil {
		return goerr.Wrap(ErrInvalidTool, "tool is nil", goerr.V("name", name))
	}
	var (
		spec Spec
		pc   panics.Catcher
	)
	pc.Try(func() { spec = tool.Spec() })
	if r := pc.Recovered(); r != nil {
		return goerr.Wrap(ErrInvalidTool, "tool spec unavailable", goerr.V("name", name), goerr.V("panic", r.Value))
	}
	if err := spec.Validate(); err != nil {
		return goerr.Wrap(err, "invalid tool spec", goerr.V("name", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn("tool re-registered, replacing previous instance", "tool", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Lookup is Get with an error for unknown names.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, goerr.Wrap(ErrToolNotFound, "lookup", goerr.V("name", name))
	}
	return t, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Unregister removes the tool registered under name.
// It returns false if no such tool existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	return true
}

// List returns the registered names in lexicographic order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the spec of every registered tool, ordered by registry name.
func (r *Registry) Specs() []Spec {
	names := r.List()
	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		if t, ok := r.Get(name); ok {
			specs = append(specs, t.Spec())
		}
	}
	return specs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear removes every tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}
