package store

import (
	"context"

	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

// DataContext is a unit of work: it tracks entity changes and saves them
// through the hook executor. A DataContext is not safe for concurrent saves.
type DataContext struct {
	executor    *hooks.Executor
	persister   hooks.Persister
	tracker     *tracking.Tracker
	scope       *hooks.Scope
	contextType hooks.ContextType
}

// ContextOption configures a DataContext
type ContextOption func(*DataContext)

// WithContextType scopes the data context to a persistence context
func WithContextType(contextType hooks.ContextType) ContextOption {
	return func(dc *DataContext) { dc.contextType = contextType }
}

// NewDataContext creates a unit of work saving through persister
func NewDataContext(executor *hooks.Executor, persister hooks.Persister, opts ...ContextOption) *DataContext {
	dc := &DataContext{
		executor:    executor,
		persister:   persister,
		tracker:     tracking.NewTracker(),
		scope:       executor.NewScope(),
		contextType: hooks.PrimaryContext,
	}
	for _, opt := range opts {
		opt(dc)
	}
	return dc
}

// Executor returns the hook executor
func (dc *DataContext) Executor() *hooks.Executor {
	return dc.executor
}

// Tracker returns the change tracker
func (dc *DataContext) Tracker() *tracking.Tracker {
	return dc.tracker
}

// Add schedules e for insertion
func (dc *DataContext) Add(e entity.Entity) {
	dc.tracker.Add(e)
}

// Attach tracks e as loaded from the store
func (dc *DataContext) Attach(e entity.Entity) {
	dc.tracker.Attach(e)
}

// Update schedules e for update
func (dc *DataContext) Update(e entity.Entity) {
	dc.tracker.Update(e)
}

// Remove schedules e for deletion
func (dc *DataContext) Remove(e entity.Entity) {
	dc.tracker.Remove(e)
}

// SaveOption tunes a single SaveChanges call
type SaveOption func(*hooks.SaveOptions)

// WithMinImportance skips hooks below the given importance
func WithMinImportance(importance hooks.Importance) SaveOption {
	return func(o *hooks.SaveOptions) { o.MinImportance = importance }
}

// PersistFaulted writes entities even when their pre-save hooks failed
func PersistFaulted() SaveOption {
	return func(o *hooks.SaveOptions) { o.PersistFaulted = true }
}

// WithoutHooks saves without invoking any hook
func WithoutHooks() SaveOption {
	return func(o *hooks.SaveOptions) { o.DisableHooks = true }
}

// SaveChanges writes every pending change. Entries that were written are
// accepted by the tracker; withheld and failed ones stay pending.
func (dc *DataContext) SaveChanges(ctx context.Context, opts ...SaveOption) (*hooks.SaveResult, error) {
	req := hooks.SaveRequest{
		ContextType: dc.contextType,
		Entries:     dc.tracker.Pending(),
		Persister:   dc.persister,
		Scope:       dc.scope,
	}
	if len(opts) > 0 {
		options := dc.executor.Defaults()
		for _, opt := range opts {
			opt(&options)
		}
		req.Options = &options
	}

	result, err := dc.executor.Save(ctx, req)
	if result != nil && result.Committed {
		dc.tracker.AcceptChanges(result.Persisted...)
	}
	return result, err
}

// Close releases the hook instances owned by the unit of work
func (dc *DataContext) Close() {
	dc.scope.Release()
	dc.tracker.Clear()
}
