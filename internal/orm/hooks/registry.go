package hooks

import (
	"fmt"
	"reflect"
	"sync"
)

// Module contributes hook registrations. Every feature package exposes one,
// and the application lists them explicitly at startup.
type Module func(r *Registry) error

// Registry collects hook registrations during startup. Build freezes it into
// an immutable Catalog.
type Registry struct {
	mu          sync.Mutex
	descriptors []*Descriptor
	byType      map[reflect.Type]*Descriptor
	frozen      bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*Descriptor),
	}
}

// Register adds hook implementation H, created by factory. Registering the
// same implementation type twice returns the first descriptor unchanged.
func Register[H any](r *Registry, factory func() H, opts ...Option) (*Descriptor, error) {
	hookType := reflect.TypeOf((*H)(nil)).Elem()
	if hookType.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceHookType, hookType)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFactory, hookType)
	}
	return r.RegisterType(hookType, func() any { return factory() }, opts...)
}

// MustRegister is like Register but panics on error
func MustRegister[H any](r *Registry, factory func() H, opts ...Option) *Descriptor {
	d, err := Register(r, factory, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// RegisterType adds a hook implementation type with an untyped factory
func (r *Registry) RegisterType(hookType reflect.Type, factory func() any, opts ...Option) (*Descriptor, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFactory, hookType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, ErrCatalogFrozen
	}
	if existing, ok := r.byType[hookType]; ok {
		return existing, nil
	}

	zero := zeroInstance(hookType)
	if !hasCapability(zero) {
		return nil, fmt.Errorf("%w: %s", ErrNoCapability, hookType)
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	d := &Descriptor{
		HookType: hookType,
		Name:     typeName(hookType),
		Binding:  resolveBinding(zero),
		factory:  factory,
		seq:      len(r.descriptors),
	}
	applyDeclared(d, zero)
	applyOptions(d, &reg)

	r.descriptors = append(r.descriptors, d)
	r.byType[hookType] = d
	return d, nil
}

// Use runs modules against the registry in order
func (r *Registry) Use(modules ...Module) error {
	for _, m := range modules {
		if err := m(r); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered hooks
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descriptors)
}

// Build applies the importance gate and freezes the registry into a catalog.
// Hooks filtered out by the gate are kept as inactive descriptors.
func (r *Registry) Build(gate ImportanceGate) *Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true

	c := &Catalog{
		gate:       gate,
		singletons: make(map[*Descriptor]*singletonCell),
	}
	for _, d := range r.descriptors {
		if !gate.Allows(d.Importance) {
			c.inactive = append(c.inactive, d)
			continue
		}
		c.active = append(c.active, d)
		if d.Lifetime == Singleton {
			c.singletons[d] = &singletonCell{}
		}
	}
	return c
}

func applyDeclared(d *Descriptor, zero any) {
	if p, ok := zero.(ImportanceProvider); ok {
		d.Importance = p.HookImportance()
	}
	if p, ok := zero.(OrderProvider); ok {
		d.Order = p.HookOrder()
	}
	if p, ok := zero.(LifetimeProvider); ok {
		d.Lifetime = p.HookLifetime()
	}
	if p, ok := zero.(CriticalProvider); ok {
		d.Critical = p.HookCritical()
	}
}

func applyOptions(d *Descriptor, reg *registration) {
	if reg.binding != nil {
		binding := *reg.binding
		if binding.EntityType == nil {
			binding.EntityType = d.Binding.EntityType
		}
		d.Binding = binding.normalize()
	}
	if reg.importance != nil {
		d.Importance = *reg.importance
	}
	if reg.order != nil {
		d.Order = *reg.order
	}
	if reg.lifetime != nil {
		d.Lifetime = *reg.lifetime
	}
	if reg.critical != nil {
		d.Critical = *reg.critical
	}
	if reg.name != "" {
		d.Name = reg.name
	}
}

func hasCapability(zero any) bool {
	switch zero.(type) {
	case PreSaveHook, PostSaveHook, CompletedHook,
		InsertingHook, UpdatingHook, DeletingHook,
		InsertedHook, UpdatedHook, DeletedHook:
		return true
	}
	return false
}
