// Package tracking records which entities are pending in a unit of work, in
// which state, and what their property values were when they were loaded.
package tracking

import (
	"reflect"
	"sort"
)

// FieldChange represents a change to a single property
type FieldChange struct {
	Field    string
	OldValue interface{}
	NewValue interface{}
}

// ChangeTracker diffs two property snapshots of one entity. It is immutable
// once built and therefore safe to share.
type ChangeTracker struct {
	original map[string]interface{}
	current  map[string]interface{}
	changes  map[string]*FieldChange
}

// NewChangeTracker creates a change tracker
// original: the state the entity was loaded with
// current: the state to compare against
func NewChangeTracker(original, current map[string]interface{}) *ChangeTracker {
	ct := &ChangeTracker{
		original: deepCopyMap(original),
		current:  deepCopyMap(current),
		changes:  make(map[string]*FieldChange),
	}
	ct.computeChanges()
	return ct
}

// deepCopyMap creates a deep copy of a map
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return make(map[string]interface{})
	}
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

// deepCopyValue copies slices and maps so a snapshot cannot be mutated
// through the entity it was taken from
func deepCopyValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Slice:
		if val.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(val.Type(), val.Len(), val.Len())
		reflect.Copy(cp, val)
		return cp.Interface()
	case reflect.Map:
		if val.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(val.Type(), val.Len())
		iter := val.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	default:
		// primitives, structs and pointers are kept as-is
		return v
	}
}

func (ct *ChangeTracker) computeChanges() {
	for field, newValue := range ct.current {
		oldValue, hadOldValue := ct.original[field]
		if !hadOldValue || !deepEqual(oldValue, newValue) {
			ct.changes[field] = &FieldChange{
				Field:    field,
				OldValue: oldValue,
				NewValue: newValue,
			}
		}
	}

	// Properties that disappeared from the current snapshot
	for field, oldValue := range ct.original {
		if _, exists := ct.current[field]; !exists {
			ct.changes[field] = &FieldChange{
				Field:    field,
				OldValue: oldValue,
				NewValue: nil,
			}
		}
	}
}

func deepEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Changed returns true if the specified property has changed
func (ct *ChangeTracker) Changed(field string) bool {
	_, ok := ct.changes[field]
	return ok
}

// ChangedFields returns the changed property names in sorted order
func (ct *ChangeTracker) ChangedFields() []string {
	fields := make([]string, 0, len(ct.changes))
	for field := range ct.changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// PreviousValue returns the original value of a property
// Returns nil if the property didn't exist in the original state
func (ct *ChangeTracker) PreviousValue(field string) interface{} {
	return ct.original[field]
}

// CurrentValue returns the compared value of a property
func (ct *ChangeTracker) CurrentValue(field string) interface{} {
	return ct.current[field]
}

// GetChange returns the FieldChange for a property, or nil if unchanged
func (ct *ChangeTracker) GetChange(field string) *FieldChange {
	return ct.changes[field]
}

// Changes returns a copy of all changes
func (ct *ChangeTracker) Changes() map[string]*FieldChange {
	result := make(map[string]*FieldChange, len(ct.changes))
	for k, v := range ct.changes {
		result[k] = v
	}
	return result
}

// HasChanges returns true if any property has changed
func (ct *ChangeTracker) HasChanges() bool {
	return len(ct.changes) > 0
}

// ChangedTo returns true if the property changed to the specified value
func (ct *ChangeTracker) ChangedTo(field string, value interface{}) bool {
	change, ok := ct.changes[field]
	if !ok {
		return false
	}
	return deepEqual(change.NewValue, value)
}

// ChangedFrom returns true if the property changed from the specified value
func (ct *ChangeTracker) ChangedFrom(field string, value interface{}) bool {
	change, ok := ct.changes[field]
	if !ok {
		return false
	}
	return deepEqual(change.OldValue, value)
}

// OriginalValues returns property name -> original value for every changed property
func (ct *ChangeTracker) OriginalValues() map[string]interface{} {
	result := make(map[string]interface{}, len(ct.changes))
	for field, change := range ct.changes {
		result[field] = change.OldValue
	}
	return result
}

// GetChangedData returns a map of only the changed properties with their new values
func (ct *ChangeTracker) GetChangedData() map[string]interface{} {
	result := make(map[string]interface{}, len(ct.changes))
	for field, change := range ct.changes {
		result[field] = change.NewValue
	}
	return result
}
