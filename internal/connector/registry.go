// Package connector keeps the named signal connectors available to ingestion.
package connector

import (
	"fmt"
	"sort"

	"GTMEngine/internal/ports"
)

// Registry keeps a mapping from connector names to their implementations.
type Registry struct {
	connectors map[string]ports.Connector
}

// NewRegistry builds a registry holding the given connectors.
func NewRegistry(connectors ...ports.Connector) *Registry {
	r := &Registry{connectors: map[string]ports.Connector{}}
	for _, c := range connectors {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a connector implementation.
func (r *Registry) Register(c ports.Connector) {
	if r.connectors == nil {
		r.connectors = map[string]ports.Connector{}
	}
	r.connectors[c.Name()] = c
}

// Resolve returns a connector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Connector, error) {
	if c, ok := r.connectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("connector %s is not registered", name)
}

// Names lists registered connectors alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
