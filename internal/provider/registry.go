package provider

import (
	"fmt"
	"os/exec"
	"sort"
	"sync"
)

// Registry is a thread-safe container for registered providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Same-id registration is
// last-write-wins.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get retrieves a provider by id. Returns nil if not found.
func (r *Registry) Get(id string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[id]
}

// List returns all registered provider ids in alphabetical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available returns providers whose binary is installed, in alphabetical
// order by id.
func (r *Registry) Available() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Provider
	for _, p := range r.providers {
		if Installed(p) {
			available = append(available, p)
		}
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].ID() < available[j].ID()
	})
	return available
}

// MustGet retrieves a provider by id or panics. Use only for ids that are
// guaranteed registered.
func (r *Registry) MustGet(id string) Provider {
	p := r.Get(id)
	if p == nil {
		panic(fmt.Sprintf("provider: %q not registered", id))
	}
	return p
}

// Installed reports whether the provider's binary is in PATH.
func Installed(p Provider) bool {
	_, err := exec.LookPath(p.ID())
	return err == nil
}

// Default is the global registry instance. Built-in providers are
// registered during package init.
var Default = NewRegistry()

// Register adds a provider to the default registry.
func Register(p Provider) {
	Default.Register(p)
}

// Get retrieves a provider from the default registry by id.
func Get(id string) Provider {
	return Default.Get(id)
}

// List returns all provider ids from the default registry.
func List() []string {
	return Default.List()
}

// Status is the diagnostic state of one provider.
type Status struct {
	ID          string
	DisplayName string
	Installed   bool
	Caps        Caps
}

// Doctor returns diagnostic status for every registered provider, in
// alphabetical order by id.
func (r *Registry) Doctor() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]Status, 0, len(r.providers))
	for _, p := range r.providers {
		statuses = append(statuses, Status{
			ID:          p.ID(),
			DisplayName: p.DisplayName(),
			Installed:   Installed(p),
			Caps:        p.Capabilities(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ID < statuses[j].ID
	})
	return statuses
}

func init() {
	Register(NewClaudeCode())
	Register(NewCopilotCLI())
	Register(NewCodexCLI())
	Register(NewOpenCodeCLI())
}
