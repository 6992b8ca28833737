package hooks

import (
	"fmt"
	"reflect"
)

// Descriptor is the catalog metadata of one hook implementation
type Descriptor struct {
	// HookType is the implementation type
	HookType reflect.Type
	// Name identifies the hook in logs and errors
	Name string
	// Binding is the entity and context type the hook applies to
	Binding Binding
	// Importance gates participation before installation
	Importance Importance
	// Order sorts hooks within a phase; lower runs first
	Order int
	// Lifetime governs instance sharing
	Lifetime Lifetime
	// Critical hooks abort the session when they fail
	Critical bool

	factory func() any
	seq     int
}

// registration records which metadata was set by options
type registration struct {
	binding    *Binding
	importance *Importance
	order      *int
	lifetime   *Lifetime
	critical   *bool
	name       string
}

// Option customizes a hook registration. Options win over metadata the hook
// declares itself.
type Option func(*registration)

// WithOrder sets the execution order
func WithOrder(order int) Option {
	return func(r *registration) { r.order = &order }
}

// WithImportance sets the importance
func WithImportance(importance Importance) Option {
	return func(r *registration) { r.importance = &importance }
}

// WithLifetime sets the lifetime
func WithLifetime(lifetime Lifetime) Option {
	return func(r *registration) { r.lifetime = &lifetime }
}

// WithBinding sets the binding explicitly
func WithBinding(binding Binding) Option {
	return func(r *registration) { r.binding = &binding }
}

// WithContext keeps the inferred entity type but scopes the hook to a context
func WithContext(contextType ContextType) Option {
	return func(r *registration) {
		if r.binding == nil {
			r.binding = &Binding{}
		}
		r.binding.ContextType = contextType
	}
}

// Critical makes failures of the hook abort the save session
func Critical() Option {
	return func(r *registration) {
		critical := true
		r.critical = &critical
	}
}

// WithName overrides the hook name
func WithName(name string) Option {
	return func(r *registration) { r.name = name }
}

// EntityTypeName returns the bound entity type name, "*" for universal hooks
func (d *Descriptor) EntityTypeName() string {
	if d.Binding.IsUniversal() {
		return "*"
	}
	return typeName(d.Binding.EntityType)
}

// String returns a short description for logs
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s@%s, %s, order=%d)",
		d.Name, d.EntityTypeName(), d.Binding.ContextType, d.Importance, d.Order)
}

func (d *Descriptor) newInstance() (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrActivation, d.Name, r)
		}
	}()

	instance = d.factory()
	if instance == nil {
		return nil, fmt.Errorf("%w: %s factory returned nil", ErrActivation, d.Name)
	}
	return instance, nil
}

// less orders descriptors by Order, then registration sequence
func (d *Descriptor) less(other *Descriptor) bool {
	if d.Order != other.Order {
		return d.Order < other.Order
	}
	return d.seq < other.seq
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
