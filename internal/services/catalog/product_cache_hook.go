package catalog

import (
	"errors"
	"fmt"

	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/tracking"
)

var productWatch = hooks.Watch("Name", "Price", "Published", "Deleted")

// ProductCacheHook evicts cached product data after a product changed in a
// way the storefront renders
type ProductCacheHook struct {
	hooks.EntityHook[*domain.Product]
	cache cache.Cache
}

// NewProductCacheHook creates the hook
func NewProductCacheHook(c cache.Cache) *ProductCacheHook {
	return &ProductCacheHook{cache: c}
}

// HookLifetime returns Singleton; the hook holds no session data
func (h *ProductCacheHook) HookLifetime() hooks.Lifetime {
	return hooks.Singleton
}

// OnAfterSave selects every written product; the completed phase filters by
// the watched properties
func (h *ProductCacheHook) OnAfterSave(ctx *hooks.Context, entry *hooks.HookedEntity) (hooks.Result, error) {
	return hooks.Ok, nil
}

// OnAfterSaveCompleted evicts the product keys once for the whole batch. New
// products only invalidate the listings.
func (h *ProductCacheHook) OnAfterSaveCompleted(ctx *hooks.Context, entries []*hooks.HookedEntity) error {
	var errs []error
	listings := false

	for _, entry := range entries {
		if !productWatch.Touched(entry) {
			continue
		}
		listings = true
		// new products have nothing cached yet
		if entry.InitialState() == tracking.Added {
			continue
		}
		if err := h.cache.Delete(ctx, ProductKey(entry.Entity().GetID())); err != nil {
			errs = append(errs, err)
		}
	}

	if listings {
		if _, err := h.cache.RemoveByPattern(ctx, ProductListingPattern); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to evict product cache: %w", err)
	}
	return nil
}
