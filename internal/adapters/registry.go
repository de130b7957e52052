package adapters

import (
	"context"
	"strings"
	"sync"

	"github.com/canopy-docs/canopy/internal/core"
)

// registryEntry pairs a backend name with the factory that builds it.
// Order matters: AutoDetect walks entries in this order and returns the
// first one whose CLI is actually on PATH.
type registryEntry struct {
	name    string
	factory Factory
}

// Registry resolves backend names to constructed Adapters, caching each
// instance so repeated calls don't re-probe availability.
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
	paths   map[string]string // name -> CLI path override
	cache   map[string]Adapter
}

// NewRegistry builds the default registry covering every backend canopy
// knows how to drive, in priority order for AutoDetect.
func NewRegistry() *Registry {
	return &Registry{
		entries: []registryEntry{
			{core.AgentClaude, NewClaude},
			{core.AgentGemini, NewGemini},
			{core.AgentCodex, NewCodex},
			{core.AgentCopilot, NewCopilot},
			{core.AgentOpenCode, NewOpenCode},
		},
		paths: make(map[string]string),
		cache: make(map[string]Adapter),
	}
}

// Configure overrides the CLI executable path used for a named backend
// and invalidates any cached instance for it.
func (r *Registry) Configure(name, cliPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[name] = cliPath
	delete(r.cache, name)
}

// Get returns the adapter for name, constructing and caching it on first
// use. It does not check availability; call IsAvailable on the result if
// the caller needs a liveness guarantee before spawning a real call.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.cache[name]; ok {
		return a, nil
	}
	for _, e := range r.entries {
		if e.name != name {
			continue
		}
		a := e.factory(r.paths[name])
		r.cache[name] = a
		return a, nil
	}
	return nil, core.ErrCLINotFound(name, r.installInstructionsFor(name))
}

func (r *Registry) installInstructionsFor(name string) string {
	for _, e := range r.entries {
		if e.name == name {
			return e.factory("").InstallInstructions()
		}
	}
	return "unknown backend " + name
}

// AutoDetect returns the first adapter, in registry order, whose CLI is
// available on this machine. It returns CLI_NOT_FOUND with every
// backend's install instructions concatenated if none are.
func (r *Registry) AutoDetect(ctx context.Context) (Adapter, error) {
	r.mu.Lock()
	entries := append([]registryEntry(nil), r.entries...)
	r.mu.Unlock()

	var tried []string
	for _, e := range entries {
		a, err := r.Get(e.name)
		if err != nil {
			continue
		}
		if a.IsAvailable(ctx) {
			return a, nil
		}
		tried = append(tried, a.Name()+": "+a.InstallInstructions())
	}
	return nil, core.ErrCLINotFound("auto", strings.Join(tried, "; "))
}

// Names returns every backend name this registry knows, in priority
// order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}
