package hooks

import (
	"fmt"
	"strings"
)

// Result is what a hook reports for one entity in one phase
type Result int

const (
	// Ok means the hook ran and was relevant
	Ok Result = iota
	// Void means the hook does not apply. The executor skips the hook for
	// further entities of the same runtime type and state in the session.
	Void
	// Failed means the hook could not complete for this entity
	Failed
)

// String returns the string representation of the result
func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case Void:
		return "void"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Importance decides whether a hook participates before the store is installed
type Importance int

const (
	// Normal hooks run only on installed systems
	Normal Importance = iota
	// Important hooks run only on installed systems, and survive a raised
	// per-save importance floor that excludes Normal hooks
	Important
	// Essential hooks always run, even during first-time setup
	Essential
)

// String returns the string representation of the importance
func (i Importance) String() string {
	switch i {
	case Normal:
		return "normal"
	case Important:
		return "important"
	case Essential:
		return "essential"
	default:
		return "unknown"
	}
}

// ParseImportance parses "normal", "important" or "essential"
func ParseImportance(s string) (Importance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "important":
		return Important, nil
	case "essential":
		return Essential, nil
	default:
		return Normal, fmt.Errorf("unknown hook importance %q", s)
	}
}

// Lifetime governs how many live instances of a hook exist
type Lifetime int

const (
	// PerOperation creates one instance per save session
	PerOperation Lifetime = iota
	// PerDependencyGraph creates one instance per Scope; a scope can span
	// several save sessions of the same unit of work
	PerDependencyGraph
	// Singleton creates one instance per catalog. Singleton hooks must be
	// safe for concurrent use and keep session data in session state.
	Singleton
)

// String returns the string representation of the lifetime
func (l Lifetime) String() string {
	switch l {
	case PerOperation:
		return "per-operation"
	case PerDependencyGraph:
		return "per-dependency-graph"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// Phase identifies where in a save session a hook is invoked
type Phase int

const (
	// PhasePreSave runs before the write
	PhasePreSave Phase = iota
	// PhasePostSave runs per entity after a successful write
	PhasePostSave
	// PhaseCompleted runs once per touched hook after all entities
	PhaseCompleted
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhasePreSave:
		return "pre-save"
	case PhasePostSave:
		return "post-save"
	case PhaseCompleted:
		return "post-save-completed"
	default:
		return "unknown"
	}
}

// ContextType tags the persistence context a hook is scoped to
type ContextType string

// PrimaryContext is the default persistence context
const PrimaryContext ContextType = "primary"

// PreSaveHook handles every pre-save call itself, whatever the entity state
type PreSaveHook interface {
	OnBeforeSave(ctx *Context, entry *HookedEntity) (Result, error)
}

// PostSaveHook handles every post-save call itself, whatever the entity state
type PostSaveHook interface {
	OnAfterSave(ctx *Context, entry *HookedEntity) (Result, error)
}

// CompletedHook runs once per session for every hook that was touched,
// receiving the entries it returned Ok for
type CompletedHook interface {
	OnAfterSaveCompleted(ctx *Context, entries []*HookedEntity) error
}

// InsertingHook is called before an added entity is inserted
type InsertingHook interface {
	OnInserting(ctx *Context, entry *HookedEntity) (Result, error)
}

// UpdatingHook is called before a modified entity is updated
type UpdatingHook interface {
	OnUpdating(ctx *Context, entry *HookedEntity) (Result, error)
}

// DeletingHook is called before a deleted entity is removed
type DeletingHook interface {
	OnDeleting(ctx *Context, entry *HookedEntity) (Result, error)
}

// InsertedHook is called after an entity was inserted
type InsertedHook interface {
	OnInserted(ctx *Context, entry *HookedEntity) (Result, error)
}

// UpdatedHook is called after an entity was updated
type UpdatedHook interface {
	OnUpdated(ctx *Context, entry *HookedEntity) (Result, error)
}

// DeletedHook is called after an entity was removed
type DeletedHook interface {
	OnDeleted(ctx *Context, entry *HookedEntity) (Result, error)
}

// ImportanceProvider lets a hook declare its importance
type ImportanceProvider interface {
	HookImportance() Importance
}

// OrderProvider lets a hook declare its order; lower runs first
type OrderProvider interface {
	HookOrder() int
}

// LifetimeProvider lets a hook declare its lifetime
type LifetimeProvider interface {
	HookLifetime() Lifetime
}

// CriticalProvider lets a hook declare that its failures abort the session
type CriticalProvider interface {
	HookCritical() bool
}
