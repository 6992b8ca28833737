package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartstore/Smartstore-sub032/internal/cli/ui"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/services/catalog"
	"github.com/smartstore/Smartstore-sub032/internal/services/configuration"
)

func newDemoCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run sample save sessions against the configured database",
		Long: `Seed a few catalog entities, then change and delete some of them. Each save
runs the registered hooks; the command prints what was written and which hooks
failed. The default configuration uses an in-memory sqlite database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			dc := a.newDataContext()
			defer dc.Close()

			// warm the caches the hooks invalidate
			for _, key := range []string{
				configuration.SettingKey(0, "catalog.pagesize"),
				"menus:catalog:main",
				"catalog:listing:home",
			} {
				if err := a.cache.Set(ctx, key, []byte("cached"), time.Minute); err != nil {
					return err
				}
			}

			lamp := &domain.Product{Name: "Lamp", Price: 19.9, Published: true}
			desk := &domain.Product{Name: "Desk", Price: 249, Published: true}
			dc.Add(&domain.Setting{Name: "catalog.pagesize", Value: "24"})
			dc.Add(&domain.Category{Name: "Home Office"})
			dc.Add(&domain.Category{Name: "???"})
			dc.Add(lamp)
			dc.Add(desk)

			result, err := dc.SaveChanges(ctx)
			if err != nil {
				return err
			}
			report(out, opts.noColor, "seed", result)

			if err := a.cache.Set(ctx, catalog.ProductKey(lamp.ID), []byte("cached"), time.Minute); err != nil {
				return err
			}
			dc.Add(&domain.Discount{Name: "Spring sale", ProductID: lamp.ID, Percent: 15, Active: true})
			lamp.Price = 17.9
			dc.Remove(desk)

			result, err = dc.SaveChanges(ctx)
			if err != nil {
				return err
			}
			report(out, opts.noColor, "update", result)

			var flagged bool
			if err := a.db.QueryRowContext(ctx,
				"SELECT has_discounts_applied FROM products WHERE id = "+a.store.Dialect().Placeholder(1),
				lamp.ID,
			).Scan(&flagged); err != nil {
				return err
			}

			kv := ui.NewKeyValues(out, opts.noColor)
			kv.Add("lamp discounted", flagged)
			for _, key := range []string{
				configuration.SettingKey(0, "catalog.pagesize"),
				"menus:catalog:main",
				"catalog:listing:home",
				catalog.ProductKey(lamp.ID),
			} {
				cached, err := a.cache.Exists(ctx, key)
				if err != nil {
					return err
				}
				kv.Add("cached "+key, cached)
			}
			kv.Render()
			return nil
		},
	}
}

func report(w io.Writer, noColor bool, title string, result *hooks.SaveResult) {
	fmt.Fprintf(w, "\n%s (session %s, state %s)\n", title, result.SessionID, result.State)

	table := ui.NewTable(w, noColor, "ENTITY", "ID", "OUTCOME")
	for _, entry := range result.Persisted {
		table.AddRow(entity.NameOf(entry.Entity), fmt.Sprint(entry.Entity.GetID()), "persisted")
	}
	for _, entry := range result.Withheld {
		table.AddRow(entity.NameOf(entry.Entity), "-", "withheld")
	}
	for _, entry := range result.Rejected {
		table.AddRow(entity.NameOf(entry.Entity), fmt.Sprint(entry.Entity.GetID()), result.PersistErrors[entry].Error())
	}
	table.Render()

	for _, failure := range result.Failures {
		ui.Warn(w, noColor, "%v", failure)
	}
	if !result.HasFailures() {
		ui.Success(w, noColor, "%d entities saved", len(result.Persisted))
	}
}
