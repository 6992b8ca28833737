// Package menus invalidates rendered storefront menus when the entities they
// link to change
package menus

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
)

const area = "menus"

// CatalogMenuPattern matches every rendered category tree
var CatalogMenuPattern = cache.Pattern(area, "catalog")

// BrandMenuPattern matches every rendered manufacturer menu
var BrandMenuPattern = cache.Pattern(area, "brands")

// MenuPattern matches the rendered variants of one custom menu
func MenuPattern(menuID int64) string {
	return cache.Pattern(area, "menu", strconv.FormatInt(menuID, 10))
}

// ProductLinkKey is the resolved link of one product
func ProductLinkKey(productID int64) string {
	return cache.EntityKey(area, "link", productID)
}

type linkRule struct {
	watch    hooks.PropertyWatch
	patterns func(e entity.Entity) []string
}

var pendingPatterns = hooks.NewStateKey[map[string]struct{}]("menus.pending-patterns")

// LinkCacheHook observes every entity and reacts to the few types that show
// up in menus. Other types resolve to Void and are skipped for the rest of
// the save.
type LinkCacheHook struct {
	cache cache.Cache
	rules *hooks.TypeSwitch[linkRule]
}

// NewLinkCacheHook creates the hook
func NewLinkCacheHook(c cache.Cache) *LinkCacheHook {
	rules := hooks.NewTypeSwitch[linkRule]()
	hooks.Case[*domain.Category](rules, linkRule{
		watch: hooks.Watch("Name", "Slug", "ParentID", "Published", "Deleted"),
		patterns: func(entity.Entity) []string {
			return []string{CatalogMenuPattern}
		},
	})
	hooks.Case[*domain.Manufacturer](rules, linkRule{
		watch: hooks.Watch("Name", "Published"),
		patterns: func(entity.Entity) []string {
			return []string{BrandMenuPattern}
		},
	})
	hooks.Case[*domain.Product](rules, linkRule{
		watch: hooks.Watch("Name", "Published", "Deleted"),
		patterns: func(e entity.Entity) []string {
			return []string{ProductLinkKey(e.GetID())}
		},
	})
	hooks.Case[*domain.MenuItem](rules, linkRule{
		watch: hooks.Watch("MenuID", "Title", "URL"),
		patterns: func(e entity.Entity) []string {
			return []string{MenuPattern(e.(*domain.MenuItem).MenuID)}
		},
	})
	return &LinkCacheHook{cache: c, rules: rules}
}

// HookLifetime returns Singleton; pending patterns live in session state
func (h *LinkCacheHook) HookLifetime() hooks.Lifetime {
	return hooks.Singleton
}

// OnAfterSave collects the cache patterns the entry invalidates
func (h *LinkCacheHook) OnAfterSave(ctx *hooks.Context, entry *hooks.HookedEntity) (hooks.Result, error) {
	rule, ok := h.rules.Lookup(entry)
	if !ok {
		return hooks.Void, nil
	}
	if !rule.watch.Touched(entry) {
		return hooks.Ok, nil
	}

	pending := pendingPatterns.GetOrInit(ctx, func() map[string]struct{} {
		return make(map[string]struct{})
	})
	for _, p := range rule.patterns(entry.Entity()) {
		pending[p] = struct{}{}
	}
	return hooks.Ok, nil
}

// OnAfterSaveCompleted removes each collected pattern once
func (h *LinkCacheHook) OnAfterSaveCompleted(ctx *hooks.Context, entries []*hooks.HookedEntity) error {
	pending, ok := pendingPatterns.Get(ctx)
	if !ok {
		return nil
	}
	pendingPatterns.Delete(ctx)

	patterns := make([]string, 0, len(pending))
	for p := range pending {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	var errs []error
	for _, p := range patterns {
		if _, err := h.cache.RemoveByPattern(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
