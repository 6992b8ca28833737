package tracking

import (
	"reflect"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
)

// EntityState is the lifecycle state of a tracked entity
type EntityState int

const (
	// Unchanged entities have no pending writes
	Unchanged EntityState = iota
	// Added entities will be inserted
	Added
	// Modified entities will be updated
	Modified
	// Deleted entities will be removed
	Deleted
	// Detached entities are no longer tracked
	Detached
)

// String returns the string representation of the state
func (s EntityState) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Detached:
		return "detached"
	default:
		return "unknown"
	}
}

// Entry is one tracked entity together with its state and the property values
// it had when it was attached. Original is nil when no values were loaded;
// every property then differs from it.
type Entry struct {
	Entity   entity.Entity
	State    EntityState
	Original map[string]interface{}
}

// NewEntry creates an entry, snapshotting the entity's current values as the
// original state unless the entity is being added
func NewEntry(e entity.Entity, state EntityState) *Entry {
	entry := &Entry{Entity: e, State: state}
	if state != Added {
		entry.Original = Snapshot(e)
	}
	return entry
}

// EntityType returns the runtime type of the tracked entity
func (e *Entry) EntityType() reflect.Type {
	return reflect.TypeOf(e.Entity)
}

// Changes diffs the original snapshot against the entity's values right now
func (e *Entry) Changes() *ChangeTracker {
	return NewChangeTracker(e.Original, Snapshot(e.Entity))
}

// Snapshot copies the persisted property values of an entity, keyed by Go
// field name
func Snapshot(e entity.Entity) map[string]interface{} {
	return deepCopyMap(entity.Values(e))
}
