package hooks

import (
	"reflect"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
)

// Binding is the (entity type, context type) pair a hook applies to
type Binding struct {
	EntityType  reflect.Type
	ContextType ContextType
}

// Bind returns a binding to entity type T in the primary context. T may be a
// concrete entity type or an interface; a hook bound to an interface observes
// every entity implementing it.
func Bind[T any]() Binding {
	return Binding{EntityType: reflect.TypeOf((*T)(nil)).Elem(), ContextType: PrimaryContext}
}

// BindContext returns a binding to entity type T in the given context
func BindContext[T any](contextType ContextType) Binding {
	return Binding{EntityType: reflect.TypeOf((*T)(nil)).Elem(), ContextType: contextType}
}

// UniversalBinding observes every entity in the primary context
func UniversalBinding() Binding {
	return Binding{EntityType: entity.Type, ContextType: PrimaryContext}
}

// Binder lets a hook declare its binding directly. HookBinding is called on a
// zero value of the hook type and must not depend on instance state.
type Binder interface {
	HookBinding() Binding
}

// ContextBinder lets a hook that embeds EntityHook pick a non-primary context
type ContextBinder interface {
	HookContext() ContextType
}

// EntityHook is embedded by hooks to bind them to entity type T, the way a
// generic base type would:
//
//	type PriceHook struct {
//	    hooks.EntityHook[*domain.Product]
//	}
type EntityHook[T entity.Entity] struct{}

func (EntityHook[T]) boundEntityType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

type entityBound interface {
	boundEntityType() reflect.Type
}

// IsUniversal reports whether the binding observes every entity
func (b Binding) IsUniversal() bool {
	return b.EntityType == nil || b.EntityType == entity.Type
}

// Matches reports whether an entity of runtime type t falls under the binding
func (b Binding) Matches(t reflect.Type) bool {
	if b.IsUniversal() {
		return t.Implements(entity.Type)
	}
	if b.EntityType.Kind() == reflect.Interface {
		return t.Implements(b.EntityType)
	}
	return t == b.EntityType
}

func (b Binding) normalize() Binding {
	if b.EntityType == nil {
		b.EntityType = entity.Type
	}
	if b.EntityType.Kind() == reflect.Struct {
		b.EntityType = reflect.PointerTo(b.EntityType)
	}
	if b.ContextType == "" {
		b.ContextType = PrimaryContext
	}
	return b
}

// resolveBinding infers the binding of a hook implementation type. It runs
// once per type at registration.
func resolveBinding(zero any) Binding {
	if binder, ok := zero.(Binder); ok {
		return binder.HookBinding().normalize()
	}

	binding := UniversalBinding()
	if bound, ok := zero.(entityBound); ok {
		binding.EntityType = bound.boundEntityType()
	}
	if cb, ok := zero.(ContextBinder); ok {
		binding.ContextType = cb.HookContext()
	}
	return binding.normalize()
}

// zeroInstance returns a usable zero value of a hook type. Pointer types get a
// freshly allocated element so promoted methods can be called safely.
func zeroInstance(t reflect.Type) any {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface()
	}
	return reflect.Zero(t).Interface()
}
