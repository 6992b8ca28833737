package hooks

import (
	"reflect"
	"sort"
	"sync"
)

// Catalog is the frozen set of live hook descriptors. It is immutable after
// Registry.Build and safe for concurrent use.
type Catalog struct {
	gate       ImportanceGate
	active     []*Descriptor
	inactive   []*Descriptor
	singletons map[*Descriptor]*singletonCell

	resolved sync.Map // resolveKey -> []*Descriptor
}

type resolveKey struct {
	entityType  reflect.Type
	contextType ContextType
}

type singletonCell struct {
	once     sync.Once
	instance any
	err      error
}

// Gate returns the importance gate the catalog was built with
func (c *Catalog) Gate() ImportanceGate {
	return c.gate
}

// Descriptors returns the live descriptors in registration order
func (c *Catalog) Descriptors() []*Descriptor {
	return append([]*Descriptor(nil), c.active...)
}

// Inactive returns the descriptors that were discovered but held back by the
// importance gate
func (c *Catalog) Inactive() []*Descriptor {
	return append([]*Descriptor(nil), c.inactive...)
}

// Len returns the number of live descriptors
func (c *Catalog) Len() int {
	return len(c.active)
}

// Lookup returns the live descriptor for a hook implementation type
func (c *Catalog) Lookup(hookType reflect.Type) (*Descriptor, bool) {
	for _, d := range c.active {
		if d.HookType == hookType {
			return d, true
		}
	}
	return nil, false
}

// Resolve returns, in execution order, the hooks that apply to entities of
// entityType in contextType with at least the given importance. The filtered
// list per entity and context type is computed once and memoized; callers get
// their own copy.
func (c *Catalog) Resolve(entityType reflect.Type, contextType ContextType, min Importance) []*Descriptor {
	resolved := c.resolve(entityType, contextType, min)
	return append(make([]*Descriptor, 0, len(resolved)), resolved...)
}

// resolve is Resolve without the copy. The result must not be modified.
func (c *Catalog) resolve(entityType reflect.Type, contextType ContextType, min Importance) []*Descriptor {
	if contextType == "" {
		contextType = PrimaryContext
	}
	all := c.resolveAll(entityType, contextType)
	if min == Normal {
		return all
	}

	filtered := make([]*Descriptor, 0, len(all))
	for _, d := range all {
		if d.Importance >= min {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func (c *Catalog) resolveAll(entityType reflect.Type, contextType ContextType) []*Descriptor {
	key := resolveKey{entityType: entityType, contextType: contextType}
	if cached, ok := c.resolved.Load(key); ok {
		return cached.([]*Descriptor)
	}

	var matches []*Descriptor
	for _, d := range c.active {
		if d.Binding.ContextType == contextType && d.Binding.Matches(entityType) {
			matches = append(matches, d)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].less(matches[j])
	})

	actual, _ := c.resolved.LoadOrStore(key, matches)
	return actual.([]*Descriptor)
}

func (c *Catalog) singleton(d *Descriptor) (any, error) {
	cell, ok := c.singletons[d]
	if !ok {
		return nil, ErrUnknownHook
	}
	cell.once.Do(func() {
		cell.instance, cell.err = d.newInstance()
	})
	return cell.instance, cell.err
}
