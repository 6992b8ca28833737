package hooks

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context wraps the standard context with the state of one save session. It
// is passed to every hook call of the session.
type Context struct {
	context.Context
	session *session
}

// SessionID returns the unique id of the save session
func (c *Context) SessionID() uuid.UUID {
	return c.session.id
}

// ContextType returns the persistence context being saved
func (c *Context) ContextType() ContextType {
	return c.session.contextType
}

// State returns the current session state
func (c *Context) State() SessionState {
	return c.session.state
}

// Entries returns every entity of the session in batch order
func (c *Context) Entries() []*HookedEntity {
	return append([]*HookedEntity(nil), c.session.entries...)
}

// Logger returns the session logger
func (c *Context) Logger() *zap.Logger {
	return c.session.logger
}

// StateKey is a typed key for session-scoped hook state. Hooks keep their
// accumulators here instead of in instance fields, so instances stay free of
// per-session data regardless of lifetime.
type StateKey[T any] struct {
	name string
}

// NewStateKey creates a state key. Keys compare by identity; create each one
// once, usually as a package variable.
func NewStateKey[T any](name string) *StateKey[T] {
	return &StateKey[T]{name: name}
}

// Name returns the key name
func (k *StateKey[T]) Name() string {
	return k.name
}

// Get returns the value stored under the key in the session
func (k *StateKey[T]) Get(c *Context) (T, bool) {
	v, ok := c.session.bag[k]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Set stores a value under the key in the session
func (k *StateKey[T]) Set(c *Context, value T) {
	c.session.bag[k] = value
}

// GetOrInit returns the stored value, initializing it with fn on first use
func (k *StateKey[T]) GetOrInit(c *Context, fn func() T) T {
	if v, ok := k.Get(c); ok {
		return v
	}
	v := fn()
	k.Set(c, v)
	return v
}

// Delete removes the key from the session
func (k *StateKey[T]) Delete(c *Context) {
	delete(c.session.bag, k)
}
