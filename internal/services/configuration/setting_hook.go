// Package configuration keeps cached settings consistent with the settings
// table
package configuration

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartstore/Smartstore-sub032/internal/cache"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
)

// SettingsPattern matches every cached setting of every store
var SettingsPattern = cache.Pattern("settings")

// SettingKey is the cache key of one setting in one store
func SettingKey(storeID int64, name string) string {
	return cache.Key("settings", strconv.FormatInt(storeID, 10), name)
}

// SettingHook drops the settings cache after any setting was written. It is
// essential: installation writes settings before the store counts as
// installed, and those writes must not leave stale entries behind.
type SettingHook struct {
	hooks.EntityHook[*domain.Setting]
	cache cache.Cache
}

// NewSettingHook creates the hook
func NewSettingHook(c cache.Cache) *SettingHook {
	return &SettingHook{cache: c}
}

// HookImportance returns Essential
func (h *SettingHook) HookImportance() hooks.Importance {
	return hooks.Essential
}

// HookLifetime returns Singleton
func (h *SettingHook) HookLifetime() hooks.Lifetime {
	return hooks.Singleton
}

// OnAfterSaveCompleted removes the settings cache once per save
func (h *SettingHook) OnAfterSaveCompleted(ctx *hooks.Context, entries []*hooks.HookedEntity) error {
	removed, err := h.cache.RemoveByPattern(ctx, SettingsPattern)
	if err != nil {
		return fmt.Errorf("failed to clear settings cache: %w", err)
	}
	ctx.Logger().Debug("settings cache cleared",
		zap.Int("removed", removed),
		zap.Int("writes", len(entries)),
	)
	return nil
}
