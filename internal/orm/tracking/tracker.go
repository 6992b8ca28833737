package tracking

import (
	"sync"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
)

// Tracker keeps the entries of one unit of work in registration order
type Tracker struct {
	mu      sync.Mutex
	entries []*Entry
	index   map[entity.Entity]*Entry
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		index: make(map[entity.Entity]*Entry),
	}
}

// Add registers a new entity to be inserted
func (t *Tracker) Add(e entity.Entity) *Entry {
	return t.track(e, Added)
}

// Attach starts tracking an entity loaded from the store. Its current values
// become the original snapshot.
func (t *Tracker) Attach(e entity.Entity) *Entry {
	return t.track(e, Unchanged)
}

// Update marks an entity as modified. An untracked entity has no loaded
// baseline, so every persisted property counts as modified.
func (t *Tracker) Update(e entity.Entity) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.index[e]
	if !ok {
		entry = t.add(e, Modified)
		entry.Original = nil
		return entry
	}
	if entry.State == Unchanged {
		entry.State = Modified
	}
	return entry
}

// Remove marks an entity for deletion. Removing an entity that was only added
// detaches it, since nothing was written yet.
func (t *Tracker) Remove(e entity.Entity) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.index[e]
	if !ok {
		return t.add(e, Deleted)
	}
	if entry.State == Added {
		t.detach(entry)
		return entry
	}
	entry.State = Deleted
	return entry
}

// Entry returns the tracking entry for an entity
func (t *Tracker) Entry(e entity.Entity) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.index[e]
	return entry, ok
}

// Entries returns all tracked entries in registration order
func (t *Tracker) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Entry(nil), t.entries...)
}

// Pending returns the entries that will be written by the next save. Attached
// entries whose properties differ from their original snapshot are promoted
// to Modified.
func (t *Tracker) Pending() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []*Entry
	for _, entry := range t.entries {
		if entry.State == Unchanged && entry.Changes().HasChanges() {
			entry.State = Modified
		}
		if entry.State != Unchanged {
			pending = append(pending, entry)
		}
	}
	return pending
}

// HasChanges reports whether a save would write anything
func (t *Tracker) HasChanges() bool {
	return len(t.Pending()) > 0
}

// AcceptChanges marks the given entries as persisted: added and modified
// entries become Unchanged with a fresh snapshot, deleted entries are detached.
func (t *Tracker) AcceptChanges(entries ...*Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range entries {
		if _, ok := t.index[entry.Entity]; !ok {
			continue
		}
		switch entry.State {
		case Added, Modified:
			entry.State = Unchanged
			entry.Original = Snapshot(entry.Entity)
		case Deleted:
			t.detach(entry)
		}
	}
}

// Clear detaches every entry
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.entries {
		entry.State = Detached
	}
	t.entries = nil
	t.index = make(map[entity.Entity]*Entry)
}

func (t *Tracker) track(e entity.Entity, state EntityState) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.index[e]; ok {
		return entry
	}
	return t.add(e, state)
}

func (t *Tracker) add(e entity.Entity, state EntityState) *Entry {
	entry := NewEntry(e, state)
	t.entries = append(t.entries, entry)
	t.index[e] = entry
	return entry
}

func (t *Tracker) detach(entry *Entry) {
	delete(t.index, entry.Entity)
	for i, candidate := range t.entries {
		if candidate == entry {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	entry.State = Detached
}
