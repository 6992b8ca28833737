// Package hookstest runs save sessions against an in-memory persister so
// hook packages can be tested without a database
package hookstest

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

// Persister assigns sequential ids to added entities and records every batch
type Persister struct {
	mu      sync.Mutex
	nextID  int64
	Batches [][]entity.Entity
	// Fail makes the persister report a per-entity error
	Fail func(e entity.Entity) error
}

// Persist implements hooks.Persister
func (p *Persister) Persist(ctx context.Context, entries []*hooks.HookedEntity) (map[*hooks.HookedEntity]error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var failed map[*hooks.HookedEntity]error
	batch := make([]entity.Entity, 0, len(entries))
	for _, he := range entries {
		e := he.Entity()
		if p.Fail != nil {
			if err := p.Fail(e); err != nil {
				if failed == nil {
					failed = make(map[*hooks.HookedEntity]error)
				}
				failed[he] = err
				continue
			}
		}
		if he.InitialState() == tracking.Added {
			p.nextID++
			e.SetID(p.nextID)
		}
		batch = append(batch, e)
	}
	p.Batches = append(p.Batches, batch)
	return failed, nil
}

// Harness is a unit of work over a catalog built from modules
type Harness struct {
	t         *testing.T
	Executor  *hooks.Executor
	Tracker   *tracking.Tracker
	Persister *Persister
}

// New builds an installed catalog from the modules
func New(t *testing.T, modules ...hooks.Module) *Harness {
	return NewWithGate(t, hooks.ImportanceGate{Installed: true}, modules...)
}

// NewWithGate builds a catalog with the given gate
func NewWithGate(t *testing.T, gate hooks.ImportanceGate, modules ...hooks.Module) *Harness {
	t.Helper()

	r := hooks.NewRegistry()
	if err := r.Use(modules...); err != nil {
		t.Fatalf("failed to register hooks: %v", err)
	}

	return &Harness{
		t:         t,
		Executor:  hooks.NewExecutor(r.Build(gate), hooks.WithLogger(zaptest.NewLogger(t))),
		Tracker:   tracking.NewTracker(),
		Persister: &Persister{},
	}
}

// Seed adds entities and saves them, so they are attached afterwards
func (h *Harness) Seed(entities ...entity.Entity) {
	h.t.Helper()
	for _, e := range entities {
		h.Tracker.Add(e)
	}
	h.Save(nil)
}

// Save runs a session over the pending entries and accepts what was written.
// It fails the test when the session returns an error.
func (h *Harness) Save(opts *hooks.SaveOptions) *hooks.SaveResult {
	h.t.Helper()

	result, err := h.Executor.Save(context.Background(), hooks.SaveRequest{
		Entries:   h.Tracker.Pending(),
		Persister: h.Persister,
		Options:   opts,
	})
	if err != nil {
		h.t.Fatalf("save failed: %v", err)
	}
	if result.Committed {
		h.Tracker.AcceptChanges(result.Persisted...)
	}
	return result
}
