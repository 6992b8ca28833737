package discounts

import (
	"sort"

	"go.uber.org/zap"

	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
)

var affectedProducts = hooks.NewStateKey[map[int64]struct{}]("discounts.affected-products")

// DiscountHook collects the products whose discounts changed and refreshes
// their discount flag once the save completed
type DiscountHook struct {
	hooks.EntityHook[*domain.Discount]
	updater *ProductUpdater
}

// NewDiscountHook creates the hook
func NewDiscountHook(updater *ProductUpdater) *DiscountHook {
	return &DiscountHook{updater: updater}
}

// HookImportance returns Important; bulk imports that raise the floor to
// Important still keep the flag consistent
func (h *DiscountHook) HookImportance() hooks.Importance {
	return hooks.Important
}

// OnAfterSave records the product of the discount, and the product it was
// moved away from
func (h *DiscountHook) OnAfterSave(ctx *hooks.Context, entry *hooks.HookedEntity) (hooks.Result, error) {
	discount := entry.Entity().(*domain.Discount)

	affected := affectedProducts.GetOrInit(ctx, func() map[int64]struct{} {
		return make(map[int64]struct{})
	})
	affected[discount.ProductID] = struct{}{}
	if previous, ok := entry.ModifiedProperties()["ProductID"].(int64); ok {
		affected[previous] = struct{}{}
	}
	return hooks.Ok, nil
}

// OnAfterSaveCompleted recomputes the flag of every affected product
func (h *DiscountHook) OnAfterSaveCompleted(ctx *hooks.Context, entries []*hooks.HookedEntity) error {
	affected, ok := affectedProducts.Get(ctx)
	if !ok {
		return nil
	}
	affectedProducts.Delete(ctx)

	ids := make([]int64, 0, len(affected))
	for id := range affected {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	updated, err := h.updater.Update(ctx, ids)
	if err != nil {
		return err
	}
	ctx.Logger().Debug("discount flags refreshed",
		zap.Int("products", len(ids)),
		zap.Int64("updated", updated),
	)
	return nil
}
