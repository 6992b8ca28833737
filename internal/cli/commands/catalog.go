package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartstore/Smartstore-sub032/internal/cli/ui"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/services"
)

func newCatalogCommand(opts *options) *cobra.Command {
	var installed bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the discovered hooks",
		Long: `List every registered hook with its binding and metadata. Hooks held back
by the importance gate are listed separately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := opts.cfg.Gate()
			if cmd.Flags().Changed("installed") {
				gate.Installed = installed
			}

			catalog, err := buildCatalog(services.Deps{}, gate)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store %s, %d active hooks\n\n", gate, catalog.Len())
			descriptorTable(opts, cmd, catalog.Descriptors()).Render()

			if inactive := catalog.Inactive(); len(inactive) > 0 {
				fmt.Fprintln(out)
				ui.Warn(out, opts.noColor, "%d hooks inactive until the store is installed", len(inactive))
				descriptorTable(opts, cmd, inactive).Render()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&installed, "installed", true, "override the installed state from the config")
	return cmd
}

func descriptorTable(opts *options, cmd *cobra.Command, descriptors []*hooks.Descriptor) *ui.Table {
	table := ui.NewTable(cmd.OutOrStdout(), opts.noColor,
		"HOOK", "ENTITY", "CONTEXT", "IMPORTANCE", "ORDER", "LIFETIME", "CRITICAL")
	for _, d := range descriptors {
		critical := ""
		if d.Critical {
			critical = "yes"
		}
		table.AddRow(
			d.Name,
			d.EntityTypeName(),
			string(d.Binding.ContextType),
			d.Importance.String(),
			strconv.Itoa(d.Order),
			d.Lifetime.String(),
			critical,
		)
	}
	return table
}
