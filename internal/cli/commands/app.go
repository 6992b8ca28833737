package commands

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/config"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/logging"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/orm/store"
	"github.com/smartstore/Smartstore-sub032/internal/orm/transaction"
	"github.com/smartstore/Smartstore-sub032/internal/services"
)

// buildCatalog registers every service module. Factories only run when a
// save resolves a hook, so inspecting the catalog needs no live deps.
func buildCatalog(deps services.Deps, gate hooks.ImportanceGate) (*hooks.Catalog, error) {
	r := hooks.NewRegistry()
	if err := r.Use(services.Modules(deps)...); err != nil {
		return nil, fmt.Errorf("failed to register hooks: %w", err)
	}
	return r.Build(gate), nil
}

// app is the fully wired engine used by the demo
type app struct {
	logger   *zap.Logger
	db       *sql.DB
	store    *store.Store
	cache    cache.Cache
	executor *hooks.Executor
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, dialect, err := store.Open(cfg.Database.Driver, cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}
	if err := domain.CreateSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	c, err := cache.Open(cache.Backend(cfg.Cache.Backend), cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	}, cache.CacheConfig{
		DefaultTTL: cfg.Cache.DefaultTTL,
		Prefix:     cfg.Cache.Prefix,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	retry := transaction.DefaultRetryConfig()
	retry.MaxRetries = cfg.Database.MaxRetries
	s := store.New(db, dialect,
		store.WithLogger(logger),
		store.WithRetry(retry),
		store.WithTimeout(cfg.Database.SaveTimeout),
	)

	catalog, err := buildCatalog(services.Deps{
		Cache:        c,
		Transactions: s.Transactions(),
		Dialect:      dialect,
	}, cfg.Gate())
	if err != nil {
		c.Close()
		db.Close()
		return nil, err
	}

	return &app{
		logger:   logger,
		db:       db,
		store:    s,
		cache:    c,
		executor: hooks.NewExecutor(catalog, hooks.WithLogger(logger), hooks.WithSaveOptions(cfg.SaveOptions())),
	}, nil
}

func (a *app) newDataContext() *store.DataContext {
	return store.NewDataContext(a.executor, a.store)
}

func (a *app) Close() {
	_ = a.cache.Close()
	_ = a.db.Close()
	_ = a.logger.Sync()
}
