// Package upstream tracks backend MCP providers: where each one lives and how
// to talk to it. The registry is read on every request and written only by
// the administrative register operation, so reads take a shared lock and
// never touch the network.
package upstream

import (
	"sync"

	"github.com/mcpcp/mcpcp/pkg/naming"
)

// Provider is a registered backend MCP server.
type Provider struct {
	Name string
	URL  string
}

// Registry maps provider names to network locations. Names are unique;
// re-registering a name replaces its address.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider. The name must be a valid qualified
// name prefix; this is the load-time enforcement point for the separator
// invariant.
func (r *Registry) Register(name, url string) error {
	if err := naming.ValidateProviderName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = Provider{Name: name, URL: url}
	return nil
}

// Resolve returns the provider registered under name.
func (r *Registry) Resolve(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return Provider{}, &UnknownProviderError{Name: name}
	}
	return p, nil
}

// Names returns the registered provider names, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
