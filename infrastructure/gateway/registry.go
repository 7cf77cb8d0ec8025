// Package gateway is the single chokepoint for tool execution. Every tool
// invocation from any agent passes through it: capability check, input
// validation, timeout, and resilience policy all live here.
package gateway

import (
	"sort"
	"sync"

	"github.com/helixforge/labrun/domain/tool"
)

// Registry is an in-memory implementation of tool.Registry.
type Registry struct {
	tools map[string]tool.Tool
	mu    sync.RWMutex
}

var _ tool.Registry = (*Registry)(nil)

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]tool.Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return tool.ErrToolExists
	}
	r.tools[t.Name()] = t
	return nil
}

// RegisterAll registers every tool, failing on the first conflict.
func (r *Registry) RegisterAll(tools ...tool.Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools in name order.
func (r *Registry) List() []tool.Tool {
	names := r.Names()
	tools := make([]tool.Tool, 0, len(names))

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}
