package hooks

import (
	"reflect"
	"sync"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

// HookedEntity is the read-only view of one pending entity passed to hooks.
// It lives for a single save session.
type HookedEntity struct {
	entry        *tracking.Entry
	initialState tracking.EntityState
	entityType   reflect.Type
	typeName     string
	contextType  ContextType
	index        int

	// values at Collecting time; the ModifiedProperties baseline
	collected map[string]interface{}

	modifiedOnce sync.Once
	modified     map[string]interface{}

	faulted   bool
	persisted bool
}

func newHookedEntity(entry *tracking.Entry, contextType ContextType, index int) *HookedEntity {
	t := entry.EntityType()
	he := &HookedEntity{
		entry:        entry,
		initialState: entry.State,
		entityType:   t,
		typeName:     entity.TypeName(t),
		contextType:  contextType,
		index:        index,
	}
	if entry.State == tracking.Modified {
		he.collected = tracking.Snapshot(entry.Entity)
	}
	return he
}

// Entity returns the entity being saved
func (h *HookedEntity) Entity() entity.Entity {
	return h.entry.Entity
}

// Entry returns the underlying tracking entry
func (h *HookedEntity) Entry() *tracking.Entry {
	return h.entry
}

// InitialState returns the state captured before any hook ran
func (h *HookedEntity) InitialState() tracking.EntityState {
	return h.initialState
}

// State returns the entry's current state
func (h *HookedEntity) State() tracking.EntityState {
	return h.entry.State
}

// EntityType returns the runtime type of the entity
func (h *HookedEntity) EntityType() reflect.Type {
	return h.entityType
}

// EntityTypeName returns the cached bare type name of the entity
func (h *HookedEntity) EntityTypeName() string {
	return h.typeName
}

// ContextType returns the persistence context of the save
func (h *HookedEntity) ContextType() ContextType {
	return h.contextType
}

// Index returns the entity's position in the save batch
func (h *HookedEntity) Index() int {
	return h.index
}

// Faulted reports whether a pre-save hook failed for the entity
func (h *HookedEntity) Faulted() bool {
	return h.faulted
}

// Persisted reports whether the entity was written successfully
func (h *HookedEntity) Persisted() bool {
	return h.persisted
}

// ModifiedProperties returns property name -> original value for every
// property that changed between load and the start of the save. Mutations
// made by hooks during the save are not reflected. Only Modified entities
// have modified properties. Computed on first access.
func (h *HookedEntity) ModifiedProperties() map[string]interface{} {
	h.modifiedOnce.Do(func() {
		if h.initialState != tracking.Modified {
			h.modified = map[string]interface{}{}
			return
		}
		h.modified = tracking.NewChangeTracker(h.entry.Original, h.collected).OriginalValues()
	})
	return h.modified
}

// IsPropertyModified reports whether a single property changed
func (h *HookedEntity) IsPropertyModified(name string) bool {
	_, ok := h.ModifiedProperties()[name]
	return ok
}

// HasAnyModified reports whether any of the given properties changed
func (h *HookedEntity) HasAnyModified(names ...string) bool {
	modified := h.ModifiedProperties()
	for _, name := range names {
		if _, ok := modified[name]; ok {
			return true
		}
	}
	return false
}

// IsSoftDeleted reports whether a modified entity was flagged deleted in this
// save: it implements entity.SoftDeletable, now reports deleted, and its
// Deleted property changed.
func (h *HookedEntity) IsSoftDeleted() bool {
	if h.initialState != tracking.Modified {
		return false
	}
	sd, ok := h.entry.Entity.(entity.SoftDeletable)
	return ok && sd.IsDeleted() && h.IsPropertyModified("Deleted")
}

// PropertyWatch is a fixed set of property names a hook cares about. Build it
// once when the hook is constructed.
type PropertyWatch map[string]struct{}

// Watch creates a property watch
func Watch(names ...string) PropertyWatch {
	w := make(PropertyWatch, len(names))
	for _, name := range names {
		w[name] = struct{}{}
	}
	return w
}

// Touched reports whether the entry is relevant to the watch: added and
// deleted entries always are, modified entries only when a watched property
// changed.
func (w PropertyWatch) Touched(h *HookedEntity) bool {
	switch h.initialState {
	case tracking.Added, tracking.Deleted:
		return true
	case tracking.Modified:
		for name := range h.ModifiedProperties() {
			if _, ok := w[name]; ok {
				return true
			}
		}
	}
	return false
}
