package hooks

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogFrozen is returned when registering after Build
	ErrCatalogFrozen = errors.New("hook registry is frozen")
	// ErrInterfaceHookType is returned when a hook is registered by interface type
	ErrInterfaceHookType = errors.New("hook must be registered with a concrete type")
	// ErrNoFactory is returned when a registration has no factory
	ErrNoFactory = errors.New("hook registration requires a factory")
	// ErrNoCapability is returned when a type implements no hook phase
	ErrNoCapability = errors.New("type implements no hook phase")
	// ErrNoPersister is returned when a save request has no persister
	ErrNoPersister = errors.New("save request requires a persister")
	// ErrActivation is returned when a hook instance cannot be created
	ErrActivation = errors.New("hook activation failed")
	// ErrUnknownHook is returned when a descriptor does not belong to the catalog
	ErrUnknownHook = errors.New("hook is not part of the catalog")
	// ErrHookFailed is reported when a hook returns Failed without an error
	ErrHookFailed = errors.New("hook reported failure")
	// ErrHookPanic wraps a recovered panic
	ErrHookPanic = errors.New("hook panicked")
)

// HookError describes one hook failure for one entity in one phase
type HookError struct {
	Hook       string
	EntityType string
	Phase      Phase
	// Index is the entity's position in the batch, -1 for the completed phase
	Index    int
	Critical bool
	Err      error
}

// Error implements the error interface
func (e *HookError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("hook %s failed in %s: %v", e.Hook, e.Phase, e.Err)
	}
	return fmt.Sprintf("hook %s failed in %s for %s #%d: %v", e.Hook, e.Phase, e.EntityType, e.Index, e.Err)
}

// Unwrap returns the underlying error
func (e *HookError) Unwrap() error {
	return e.Err
}

// IsHookError returns true if err is or wraps a *HookError
func IsHookError(err error) bool {
	var hookErr *HookError
	return errors.As(err, &hookErr)
}
