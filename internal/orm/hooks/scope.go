package hooks

import (
	"sync"
)

// Scope resolves live hook instances honoring each descriptor's lifetime.
// PerDependencyGraph instances are shared by every save run in the scope;
// PerOperation instances live in the session that created them.
type Scope struct {
	catalog *Catalog

	mu        sync.Mutex
	instances map[*Descriptor]any
}

// NewScope creates a scope over a catalog
func NewScope(catalog *Catalog) *Scope {
	return &Scope{
		catalog:   catalog,
		instances: make(map[*Descriptor]any),
	}
}

// Resolve returns the instance for a descriptor. PerOperation descriptors get
// a new instance on every call; the executor caches them per session.
func (s *Scope) Resolve(d *Descriptor) (any, error) {
	switch d.Lifetime {
	case Singleton:
		return s.catalog.singleton(d)
	case PerDependencyGraph:
		s.mu.Lock()
		defer s.mu.Unlock()
		if instance, ok := s.instances[d]; ok {
			return instance, nil
		}
		instance, err := d.newInstance()
		if err != nil {
			return nil, err
		}
		s.instances[d] = instance
		return instance, nil
	default:
		return d.newInstance()
	}
}

// Release drops every instance the scope owns
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = make(map[*Descriptor]any)
}
