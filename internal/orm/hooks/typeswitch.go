package hooks

import (
	"reflect"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
)

// TypeSwitch maps runtime entity types to handlers. Universal hooks that care
// about a handful of unrelated entity types build one at construction time
// instead of type-switching on every call.
type TypeSwitch[H any] struct {
	handlers map[reflect.Type]H
	order    []reflect.Type
}

// NewTypeSwitch creates an empty type switch
func NewTypeSwitch[H any]() *TypeSwitch[H] {
	return &TypeSwitch[H]{handlers: make(map[reflect.Type]H)}
}

// Case registers handler h for entity type T and returns the switch
func Case[T entity.Entity, H any](ts *TypeSwitch[H], h H) *TypeSwitch[H] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if _, exists := ts.handlers[t]; !exists {
		ts.order = append(ts.order, t)
	}
	ts.handlers[t] = h
	return ts
}

// Lookup returns the handler for the entry's runtime entity type
func (ts *TypeSwitch[H]) Lookup(entry *HookedEntity) (H, bool) {
	h, ok := ts.handlers[entry.entityType]
	return h, ok
}

// Handles reports whether the switch has a handler for the entry
func (ts *TypeSwitch[H]) Handles(entry *HookedEntity) bool {
	_, ok := ts.handlers[entry.entityType]
	return ok
}

// Types returns the handled types in registration order
func (ts *TypeSwitch[H]) Types() []reflect.Type {
	return append([]reflect.Type(nil), ts.order...)
}
