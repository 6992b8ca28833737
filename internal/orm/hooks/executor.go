package hooks

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

// SessionState is the phase a save session is in. A session moves through
// the states strictly in order.
type SessionState int

const (
	// StateCollecting wraps the pending entries
	StateCollecting SessionState = iota
	// StatePreSave runs pre-save hooks
	StatePreSave
	// StatePersisting hands the batch to the persister
	StatePersisting
	// StatePostSave runs post-save hooks per persisted entity
	StatePostSave
	// StateCompleted runs the completed phase once per touched hook
	StateCompleted
	// StateDone means the session was discarded
	StateDone
)

// String returns the string representation of the state
func (s SessionState) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StatePreSave:
		return "pre-save"
	case StatePersisting:
		return "persisting"
	case StatePostSave:
		return "post-save"
	case StateCompleted:
		return "post-save-completed"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Persister performs the actual write of a save batch. It returns the
// entities that could not be written; a non-nil error means the whole batch
// failed and nothing was committed.
type Persister interface {
	Persist(ctx context.Context, entries []*HookedEntity) (map[*HookedEntity]error, error)
}

// PersisterFunc adapts a function to the Persister interface
type PersisterFunc func(ctx context.Context, entries []*HookedEntity) (map[*HookedEntity]error, error)

// Persist calls f
func (f PersisterFunc) Persist(ctx context.Context, entries []*HookedEntity) (map[*HookedEntity]error, error) {
	return f(ctx, entries)
}

// SaveOptions tune a single save
type SaveOptions struct {
	// MinImportance skips hooks below the given importance
	MinImportance Importance
	// PersistFaulted writes entities whose pre-save hooks failed
	PersistFaulted bool
	// DisableHooks persists without invoking any hook
	DisableHooks bool
}

// SaveRequest describes one save session
type SaveRequest struct {
	// ContextType selects the hooks scoped to a persistence context
	ContextType ContextType
	// Entries are the pending entities, in the order they are processed
	Entries []*tracking.Entry
	// Persister writes the batch
	Persister Persister
	// Scope resolves hook instances; a fresh scope is used when nil
	Scope *Scope
	// Options overrides the executor defaults when set
	Options *SaveOptions
}

// SaveResult reports the outcome of a save session
type SaveResult struct {
	SessionID uuid.UUID
	// State is the last state the session reached before it was discarded
	State SessionState
	// Committed is true once the persister accepted the batch
	Committed bool
	// Persisted are the entries that were written
	Persisted []*tracking.Entry
	// Withheld are faulted entries that were not handed to the persister
	Withheld []*tracking.Entry
	// Rejected are the entries the persister failed, in batch order
	Rejected []*tracking.Entry
	// PersistErrors are per-entity write failures
	PersistErrors map[*tracking.Entry]error
	// Failures are the hook failures of the session, in occurrence order
	Failures []*HookError
}

// HasFailures reports whether any hook or entity write failed
func (r *SaveResult) HasFailures() bool {
	return len(r.Failures) > 0 || len(r.PersistErrors) > 0
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSaveOptions sets the default options of every save
func WithSaveOptions(opts SaveOptions) ExecutorOption {
	return func(e *Executor) { e.defaults = opts }
}

// Executor drives save sessions through the hook phases
type Executor struct {
	catalog  *Catalog
	logger   *zap.Logger
	defaults SaveOptions
}

// NewExecutor creates a new hook executor over a catalog
func NewExecutor(catalog *Catalog, opts ...ExecutorOption) *Executor {
	e := &Executor{
		catalog: catalog,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the hook catalog
func (e *Executor) Catalog() *Catalog {
	return e.catalog
}

// Defaults returns the options used when a request carries none
func (e *Executor) Defaults() SaveOptions {
	return e.defaults
}

// NewScope creates a component scope for one unit of work
func (e *Executor) NewScope() *Scope {
	return NewScope(e.catalog)
}

// Save runs one save session: pre-save hooks, the write, post-save hooks and
// the completed phase. Non-critical hook failures are logged and reported in
// the result; the returned error is non-nil only when the session was
// aborted or the batch could not be written.
func (e *Executor) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if req.Persister == nil {
		return nil, ErrNoPersister
	}

	s := e.newSession(ctx, req)
	defer s.discard()

	return s.run(req)
}

type voidKey struct {
	descriptor *Descriptor
	entityType reflect.Type
	phase      Phase
}

// session is the state of one Save call. It is used by a single goroutine.
type session struct {
	id          uuid.UUID
	executor    *Executor
	scope       *Scope
	contextType ContextType
	opts        SaveOptions
	logger      *zap.Logger
	ctx         *Context

	state     SessionState
	entries   []*HookedEntity
	bag       map[any]any
	instances map[*Descriptor]any
	voided    map[voidKey]struct{}
	touched   map[*Descriptor][]*HookedEntity
	seen      map[*Descriptor]map[*HookedEntity]struct{}
	failures  []*HookError
}

func (e *Executor) newSession(ctx context.Context, req SaveRequest) *session {
	contextType := req.ContextType
	if contextType == "" {
		contextType = PrimaryContext
	}
	opts := e.defaults
	if req.Options != nil {
		opts = *req.Options
	}
	scope := req.Scope
	if scope == nil {
		scope = e.NewScope()
	}

	id := uuid.New()
	s := &session{
		id:          id,
		executor:    e,
		scope:       scope,
		contextType: contextType,
		opts:        opts,
		logger:      e.logger.With(zap.String("session", id.String()), zap.String("context", string(contextType))),
		bag:         make(map[any]any),
		instances:   make(map[*Descriptor]any),
		voided:      make(map[voidKey]struct{}),
		touched:     make(map[*Descriptor][]*HookedEntity),
		seen:        make(map[*Descriptor]map[*HookedEntity]struct{}),
	}
	s.ctx = &Context{Context: ctx, session: s}
	return s
}

func (s *session) run(req SaveRequest) (*SaveResult, error) {
	result := &SaveResult{
		SessionID:     s.id,
		PersistErrors: make(map[*tracking.Entry]error),
	}
	defer func() {
		result.State = s.state
		result.Failures = s.failures
	}()

	s.collect(req.Entries)

	if err := s.preSave(); err != nil {
		return result, err
	}

	if err := s.persist(req.Persister, result); err != nil {
		return result, err
	}

	if err := s.postSave(); err != nil {
		return result, err
	}

	if err := s.completed(); err != nil {
		return result, err
	}

	s.logger.Debug("save session finished",
		zap.Int("entities", len(s.entries)),
		zap.Int("persisted", len(result.Persisted)),
		zap.Int("failures", len(s.failures)),
	)
	return result, nil
}

func (s *session) collect(entries []*tracking.Entry) {
	s.state = StateCollecting
	s.entries = make([]*HookedEntity, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Entity == nil || entry.State == tracking.Detached {
			continue
		}
		s.entries = append(s.entries, newHookedEntity(entry, s.contextType, len(s.entries)))
	}
}

func (s *session) preSave() error {
	s.state = StatePreSave
	if s.opts.DisableHooks {
		return nil
	}

	for _, he := range s.entries {
		if !dispatchable(he) {
			continue
		}
		for _, d := range s.resolve(he) {
			if err := s.ctx.Err(); err != nil {
				return fmt.Errorf("save cancelled before persisting: %w", err)
			}
			if herr := s.invoke(d, he, PhasePreSave); herr != nil && herr.Critical {
				return herr
			}
		}
	}
	return nil
}

func (s *session) persist(p Persister, result *SaveResult) error {
	s.state = StatePersisting

	batch := make([]*HookedEntity, 0, len(s.entries))
	for _, he := range s.entries {
		if !dispatchable(he) {
			continue
		}
		if he.faulted && !s.opts.PersistFaulted {
			result.Withheld = append(result.Withheld, he.entry)
			continue
		}
		batch = append(batch, he)
	}
	if len(batch) == 0 {
		return nil
	}

	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("save cancelled before persisting: %w", err)
	}

	failed, err := p.Persist(s.ctx.Context, batch)
	if err != nil {
		return fmt.Errorf("failed to persist entities: %w", err)
	}
	result.Committed = true

	for _, he := range batch {
		if perr, ok := failed[he]; ok && perr != nil {
			result.PersistErrors[he.entry] = perr
			result.Rejected = append(result.Rejected, he.entry)
			continue
		}
		he.persisted = true
		result.Persisted = append(result.Persisted, he.entry)
	}
	return nil
}

func (s *session) postSave() error {
	s.state = StatePostSave
	if s.opts.DisableHooks {
		return nil
	}

	for _, he := range s.entries {
		if !he.persisted {
			continue
		}
		for _, d := range s.resolve(he) {
			if err := s.ctx.Err(); err != nil {
				return fmt.Errorf("save cancelled after persisting: %w", err)
			}
			if herr := s.invoke(d, he, PhasePostSave); herr != nil && herr.Critical {
				return herr
			}
		}
	}
	return nil
}

// completed runs once per hook that touched a written entity, in catalog
// order. Failures here are reported only: the batch is already committed.
func (s *session) completed() error {
	s.state = StateCompleted
	if s.opts.DisableHooks {
		return nil
	}

	touched := make([]*Descriptor, 0, len(s.touched))
	for d := range s.touched {
		touched = append(touched, d)
	}
	sort.Slice(touched, func(i, j int) bool {
		return touched[i].less(touched[j])
	})

	for _, d := range touched {
		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("save cancelled after persisting: %w", err)
		}

		entries := persistedOnly(s.touched[d])
		if len(entries) == 0 {
			continue
		}

		instance, err := s.instance(d)
		if err != nil {
			s.fail(d, nil, PhaseCompleted, err)
			continue
		}
		hook, ok := instance.(CompletedHook)
		if !ok {
			continue
		}

		if _, err := protect(func() (Result, error) {
			return Ok, hook.OnAfterSaveCompleted(s.ctx, entries)
		}); err != nil {
			s.fail(d, nil, PhaseCompleted, err)
		}
	}
	return nil
}

// invoke calls one hook for one entity and records the outcome. It returns
// the failure, if any.
func (s *session) invoke(d *Descriptor, he *HookedEntity, phase Phase) *HookError {
	key := voidKey{descriptor: d, entityType: he.entityType, phase: phase}
	if _, skip := s.voided[key]; skip {
		return nil
	}

	instance, err := s.instance(d)
	if err != nil {
		return s.fail(d, he, phase, err)
	}

	var call phaseCall
	if phase == PhasePreSave {
		call = preSaveCall(instance, he)
	} else {
		call = postSaveCall(instance, he)
	}
	// no method for this state: nothing to remember
	if call == nil {
		return nil
	}

	result, err := protect(func() (Result, error) {
		return call(s.ctx, he)
	})

	switch {
	case err != nil:
		return s.fail(d, he, phase, err)
	case result == Failed:
		return s.fail(d, he, phase, ErrHookFailed)
	case result == Void:
		s.voided[key] = struct{}{}
	default:
		s.touch(d, he)
	}
	return nil
}

func (s *session) resolve(he *HookedEntity) []*Descriptor {
	return s.executor.catalog.resolve(he.entityType, s.contextType, s.opts.MinImportance)
}

// instance returns the session's instance of a hook, resolving it through the
// scope on first use
func (s *session) instance(d *Descriptor) (any, error) {
	if instance, ok := s.instances[d]; ok {
		return instance, nil
	}
	instance, err := s.scope.Resolve(d)
	if err != nil {
		return nil, err
	}
	s.instances[d] = instance
	return instance, nil
}

func (s *session) touch(d *Descriptor, he *HookedEntity) {
	seen, ok := s.seen[d]
	if !ok {
		seen = make(map[*HookedEntity]struct{})
		s.seen[d] = seen
	}
	if _, dup := seen[he]; dup {
		return
	}
	seen[he] = struct{}{}

	// keep batch order even when pre-save and post-save touch different entries
	list := s.touched[d]
	i := sort.Search(len(list), func(i int) bool { return list[i].index > he.index })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = he
	s.touched[d] = list
}

func persistedOnly(entries []*HookedEntity) []*HookedEntity {
	out := make([]*HookedEntity, 0, len(entries))
	for _, he := range entries {
		if he.persisted {
			out = append(out, he)
		}
	}
	return out
}

func (s *session) fail(d *Descriptor, he *HookedEntity, phase Phase, err error) *HookError {
	herr := &HookError{
		Hook:       d.Name,
		EntityType: d.EntityTypeName(),
		Phase:      phase,
		Index:      -1,
		Critical:   d.Critical,
		Err:        err,
	}
	if he != nil {
		herr.EntityType = he.typeName
		herr.Index = he.index
		if phase == PhasePreSave {
			he.faulted = true
		}
	}
	s.failures = append(s.failures, herr)

	s.logger.Error("hook failed",
		zap.String("hook", d.Name),
		zap.String("entity_type", herr.EntityType),
		zap.Stringer("phase", phase),
		zap.Int("index", herr.Index),
		zap.Bool("critical", d.Critical),
		zap.Error(err),
	)
	return herr
}

// discard drops every reference the session holds
func (s *session) discard() {
	s.state = StateDone
	s.entries = nil
	s.bag = nil
	s.instances = nil
	s.voided = nil
	s.touched = nil
	s.seen = nil
}

func dispatchable(he *HookedEntity) bool {
	switch he.initialState {
	case tracking.Added, tracking.Modified, tracking.Deleted:
		return true
	}
	return false
}

type phaseCall func(c *Context, he *HookedEntity) (Result, error)

// preSaveCall returns the pre-save method for the entity's state, or nil
func preSaveCall(instance any, he *HookedEntity) phaseCall {
	if h, ok := instance.(PreSaveHook); ok {
		return h.OnBeforeSave
	}
	switch he.initialState {
	case tracking.Added:
		if h, ok := instance.(InsertingHook); ok {
			return h.OnInserting
		}
	case tracking.Modified:
		if h, ok := instance.(UpdatingHook); ok {
			return h.OnUpdating
		}
	case tracking.Deleted:
		if h, ok := instance.(DeletingHook); ok {
			return h.OnDeleting
		}
	}
	return nil
}

// postSaveCall returns the post-save method for the entity's state, or nil
func postSaveCall(instance any, he *HookedEntity) phaseCall {
	if h, ok := instance.(PostSaveHook); ok {
		return h.OnAfterSave
	}
	switch he.initialState {
	case tracking.Added:
		if h, ok := instance.(InsertedHook); ok {
			return h.OnInserted
		}
	case tracking.Modified:
		if h, ok := instance.(UpdatedHook); ok {
			return h.OnUpdated
		}
	case tracking.Deleted:
		if h, ok := instance.(DeletedHook); ok {
			return h.OnDeleted
		}
	}

	// A hook that only observes the completed phase sees every saved entity
	// it is bound to.
	if _, ok := instance.(CompletedHook); ok && !observesPostSave(instance) && !observesPreSave(instance) {
		return implicitOk
	}
	return nil
}

func implicitOk(*Context, *HookedEntity) (Result, error) {
	return Ok, nil
}

func observesPreSave(instance any) bool {
	switch instance.(type) {
	case PreSaveHook, InsertingHook, UpdatingHook, DeletingHook:
		return true
	}
	return false
}

func observesPostSave(instance any) bool {
	switch instance.(type) {
	case PostSaveHook, InsertedHook, UpdatedHook, DeletedHook:
		return true
	}
	return false
}

// protect runs a hook call, turning a panic into a failure
func protect(fn func() (Result, error)) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
	}()
	return fn()
}
