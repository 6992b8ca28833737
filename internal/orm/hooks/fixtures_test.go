package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

type productEntity struct {
	entity.BaseEntity
	Name    string
	Price   float64
	Deleted bool
}

func (p *productEntity) IsDeleted() bool { return p.Deleted }

func (p *productEntity) AuditName() string { return "product:" + p.Name }

type categoryEntity struct {
	entity.BaseEntity
	Name string
}

type noteEntity struct {
	entity.BaseEntity
	Text string
}

func (n *noteEntity) AuditName() string { return "note" }

type auditable interface {
	entity.Entity
	AuditName() string
}

// trace records hook calls as "Hook.Op(eN)" where N is the 1-based batch position
type trace struct {
	mu        sync.Mutex
	calls     []string
	completed map[string][]*HookedEntity
}

func newTrace() *trace {
	return &trace{completed: make(map[string][]*HookedEntity)}
}

func (t *trace) add(hook, op string, he *HookedEntity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, fmt.Sprintf("%s.%s(e%d)", hook, op, he.Index()+1))
}

func (t *trace) addRaw(call string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
}

func (t *trace) complete(hook string, entries []*HookedEntity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, hook+".PostSaveCompleted")
	t.completed[hook] = entries
}

func (t *trace) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// recorder implements every per-state phase plus the completed phase
type recorder struct {
	name string
	tr   *trace
}

func (r *recorder) OnInserting(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Insert", e)
	return Ok, nil
}

func (r *recorder) OnUpdating(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Update", e)
	return Ok, nil
}

func (r *recorder) OnDeleting(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Delete", e)
	return Ok, nil
}

func (r *recorder) OnInserted(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Inserted", e)
	return Ok, nil
}

func (r *recorder) OnUpdated(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Updated", e)
	return Ok, nil
}

func (r *recorder) OnDeleted(ctx *Context, e *HookedEntity) (Result, error) {
	r.tr.add(r.name, "Deleted", e)
	return Ok, nil
}

func (r *recorder) OnAfterSaveCompleted(ctx *Context, entries []*HookedEntity) error {
	r.tr.complete(r.name, entries)
	return nil
}

type productHook struct {
	EntityHook[*productEntity]
	recorder
}

type categoryHook struct {
	EntityHook[*categoryEntity]
	recorder
}

type universalHook struct {
	recorder
}

type auditHook struct {
	recorder
}

func (auditHook) HookBinding() Binding { return Bind[auditable]() }

// funcHook is a universal pre-save hook driven by a closure
type funcHook struct {
	fn func(ctx *Context, e *HookedEntity) (Result, error)
}

func (h *funcHook) OnBeforeSave(ctx *Context, e *HookedEntity) (Result, error) {
	return h.fn(ctx, e)
}

// secondFuncHook is a distinct implementation type with the same shape
type secondFuncHook struct {
	fn func(ctx *Context, e *HookedEntity) (Result, error)
}

func (h *secondFuncHook) OnBeforeSave(ctx *Context, e *HookedEntity) (Result, error) {
	return h.fn(ctx, e)
}

// completedOnly observes saved entities only through the completed phase
type completedOnly struct {
	EntityHook[*productEntity]
	got func(entries []*HookedEntity)
}

func (h *completedOnly) OnAfterSaveCompleted(ctx *Context, entries []*HookedEntity) error {
	h.got(entries)
	return nil
}

// notAHook has no hook capability
type notAHook struct{}

// recordingPersister assigns ids to added entities and records each batch
type recordingPersister struct {
	tr      *trace
	nextID  int64
	batches int
	failFor map[entity.Entity]error
	err     error
}

func (p *recordingPersister) Persist(ctx context.Context, entries []*HookedEntity) (map[*HookedEntity]error, error) {
	p.batches++
	if p.err != nil {
		return nil, p.err
	}

	call := "persist("
	failed := make(map[*HookedEntity]error)
	for i, e := range entries {
		if i > 0 {
			call += ","
		}
		call += fmt.Sprintf("e%d", e.Index()+1)
		if err, ok := p.failFor[e.Entity()]; ok {
			failed[e] = err
			continue
		}
		if e.InitialState() == tracking.Added {
			p.nextID++
			e.Entity().SetID(p.nextID)
		}
	}
	if p.tr != nil {
		p.tr.addRaw(call + ")")
	}
	return failed, nil
}

func added(e entity.Entity) *tracking.Entry {
	return tracking.NewEntry(e, tracking.Added)
}

func modified(e entity.Entity) *tracking.Entry {
	return tracking.NewEntry(e, tracking.Modified)
}

func deleted(e entity.Entity) *tracking.Entry {
	return tracking.NewEntry(e, tracking.Deleted)
}
