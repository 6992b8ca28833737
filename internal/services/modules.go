// Package services lists the hook modules of every feature package. The
// application registers them explicitly at startup; nothing registers itself
// through init.
package services

import (
	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
	"github.com/smartstore/Smartstore-sub032/internal/orm/transaction"
	"github.com/smartstore/Smartstore-sub032/internal/services/catalog"
	"github.com/smartstore/Smartstore-sub032/internal/services/configuration"
	"github.com/smartstore/Smartstore-sub032/internal/services/discounts"
	"github.com/smartstore/Smartstore-sub032/internal/services/menus"
)

// Deps are the shared components hook factories close over
type Deps struct {
	Cache        cache.Cache
	Transactions *transaction.Manager
	Dialect      store.Dialect
	// DiscountChunkSize bounds the ids per discount flag statement
	DiscountChunkSize int
}

// Modules returns the hook modules in registration order
func Modules(deps Deps) []hooks.Module {
	return []hooks.Module{
		ConfigurationModule(deps),
		CatalogModule(deps),
		DiscountsModule(deps),
		MenusModule(deps),
	}
}

// ConfigurationModule registers the settings hooks
func ConfigurationModule(deps Deps) hooks.Module {
	return func(r *hooks.Registry) error {
		_, err := hooks.Register(r, func() *configuration.SettingHook {
			return configuration.NewSettingHook(deps.Cache)
		})
		return err
	}
}

// CatalogModule registers the product and category hooks
func CatalogModule(deps Deps) hooks.Module {
	return func(r *hooks.Registry) error {
		if _, err := hooks.Register(r, func() catalog.SlugNormalizer {
			return catalog.SlugNormalizer{}
		}); err != nil {
			return err
		}
		_, err := hooks.Register(r, func() *catalog.ProductCacheHook {
			return catalog.NewProductCacheHook(deps.Cache)
		})
		return err
	}
}

// DiscountsModule registers the discount flag hook
func DiscountsModule(deps Deps) hooks.Module {
	return func(r *hooks.Registry) error {
		updater := discounts.NewProductUpdater(deps.Transactions, deps.Dialect, deps.DiscountChunkSize)
		_, err := hooks.Register(r, func() *discounts.DiscountHook {
			return discounts.NewDiscountHook(updater)
		})
		return err
	}
}

// MenusModule registers the menu link hook
func MenusModule(deps Deps) hooks.Module {
	return func(r *hooks.Registry) error {
		_, err := hooks.Register(r, func() *menus.LinkCacheHook {
			return menus.NewLinkCacheHook(deps.Cache)
		})
		return err
	}
}
