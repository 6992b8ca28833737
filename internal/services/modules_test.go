package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
	"github.com/smartstore/Smartstore-sub032/internal/services/catalog"
	"github.com/smartstore/Smartstore-sub032/internal/services/configuration"
	"github.com/smartstore/Smartstore-sub032/internal/services/menus"
)

type env struct {
	cache *cache.MemoryCache
	store *store.Store
	deps  Deps
}

func setup(t *testing.T) *env {
	t.Helper()

	db, dialect, err := store.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, domain.CreateSchema(context.Background(), db, dialect))

	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	s := store.New(db, dialect)
	return &env{
		cache: c,
		store: s,
		deps:  Deps{Cache: c, Transactions: s.Transactions(), Dialect: dialect},
	}
}

func (e *env) catalog(t *testing.T, gate hooks.ImportanceGate) *hooks.Catalog {
	t.Helper()
	r := hooks.NewRegistry()
	require.NoError(t, r.Use(Modules(e.deps)...))
	return r.Build(gate)
}

func names(descriptors []*hooks.Descriptor) []string {
	out := make([]string, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Name
	}
	return out
}

func TestModules_Catalog(t *testing.T) {
	e := setup(t)
	c := e.catalog(t, hooks.ImportanceGate{Installed: true})

	assert.Equal(t, []string{"SettingHook", "SlugNormalizer", "ProductCacheHook", "DiscountHook", "LinkCacheHook"}, names(c.Descriptors()))
	assert.Empty(t, c.Inactive())

	resolved := c.Resolve(reflect.TypeOf((**domain.Category)(nil)).Elem(), hooks.PrimaryContext, hooks.Normal)
	assert.Equal(t, []string{"SlugNormalizer", "LinkCacheHook"}, names(resolved))

	resolved = c.Resolve(reflect.TypeOf((**domain.Product)(nil)).Elem(), hooks.PrimaryContext, hooks.Normal)
	assert.Equal(t, []string{"ProductCacheHook", "LinkCacheHook"}, names(resolved))

	resolved = c.Resolve(reflect.TypeOf((**domain.Discount)(nil)).Elem(), hooks.PrimaryContext, hooks.Important)
	assert.Equal(t, []string{"DiscountHook"}, names(resolved))
}

func TestModules_NotInstalled(t *testing.T) {
	e := setup(t)
	c := e.catalog(t, hooks.ImportanceGate{Installed: false})

	assert.Equal(t, []string{"SettingHook"}, names(c.Descriptors()))
	assert.Len(t, c.Inactive(), 4)
}

func TestModules_SaveSession(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	dc := store.NewDataContext(hooks.NewExecutor(e.catalog(t, hooks.ImportanceGate{Installed: true})), e.store)
	defer dc.Close()

	category := &domain.Category{Name: "Garden Tools"}
	lamp := &domain.Product{Name: "Lamp", Price: 10, Published: true}
	dc.Add(category)
	dc.Add(lamp)
	dc.Add(&domain.Setting{Name: "catalog.pagesize", Value: "24"})

	for _, key := range []string{
		configuration.SettingKey(0, "catalog.pagesize"),
		"menus:catalog:main",
		cache.Key("catalog", "listing", "home"),
	} {
		require.NoError(t, e.cache.Set(ctx, key, []byte("cached"), time.Minute))
	}

	result, err := dc.SaveChanges(ctx)
	require.NoError(t, err)
	require.Empty(t, result.Failures)
	assert.Len(t, result.Persisted, 3)
	assert.Equal(t, "garden-tools", category.Slug)

	exists := func(key string) bool {
		ok, err := e.cache.Exists(ctx, key)
		require.NoError(t, err)
		return ok
	}
	assert.False(t, exists(configuration.SettingKey(0, "catalog.pagesize")))
	assert.False(t, exists("menus:catalog:main"))
	// a new product shows up in listings
	assert.False(t, exists(cache.Key("catalog", "listing", "home")))

	require.NoError(t, e.cache.Set(ctx, cache.Key("catalog", "listing", "home"), []byte("cached"), time.Minute))
	require.NoError(t, e.cache.Set(ctx, catalog.ProductKey(lamp.ID), []byte("cached"), time.Minute))
	require.NoError(t, e.cache.Set(ctx, menus.ProductLinkKey(lamp.ID), []byte("cached"), time.Minute))
	lamp.Name = "Desk Lamp"
	_, err = dc.SaveChanges(ctx)
	require.NoError(t, err)
	assert.False(t, exists(catalog.ProductKey(lamp.ID)))
	assert.False(t, exists(menus.ProductLinkKey(lamp.ID)))
	assert.False(t, exists(cache.Key("catalog", "listing", "home")))
}
