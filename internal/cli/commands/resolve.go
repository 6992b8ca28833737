package commands

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartstore/Smartstore-sub032/internal/cli/ui"
	"github.com/smartstore/Smartstore-sub032/internal/domain"
	"github.com/smartstore/Smartstore-sub032/internal/orm/entity"
	"github.com/smartstore/Smartstore-sub032/internal/orm/hooks"
	"github.com/smartstore/Smartstore-sub032/internal/services"
)

func newResolveCommand(opts *options) *cobra.Command {
	var (
		contextType   string
		minImportance string
	)

	cmd := &cobra.Command{
		Use:   "resolve <entity>",
		Short: "Show the hooks that run for an entity type, in execution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := lookupEntity(args[0], opts.noColor)
			if err != nil {
				return err
			}

			floor, err := hooks.ParseImportance(minImportance)
			if err != nil {
				return err
			}

			catalog, err := buildCatalog(services.Deps{}, opts.cfg.Gate())
			if err != nil {
				return err
			}

			resolved := catalog.Resolve(entityType, hooks.ContextType(contextType), floor)
			out := cmd.OutOrStdout()
			if len(resolved) == 0 {
				ui.Warn(out, opts.noColor, "no hooks apply to %s", entity.TypeName(entityType))
				return nil
			}

			fmt.Fprintf(out, "%d hooks run for %s in context %q\n\n", len(resolved), entity.TypeName(entityType), contextType)
			descriptorTable(opts, cmd, resolved).Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&contextType, "context", string(hooks.PrimaryContext), "persistence context type")
	cmd.Flags().StringVar(&minImportance, "min-importance", "normal", "skip hooks below this importance")
	return cmd
}

func lookupEntity(name string, noColor bool) (reflect.Type, error) {
	var names []string
	for _, t := range domain.Types() {
		typeName := entity.TypeName(t)
		if strings.EqualFold(typeName, name) {
			return t, nil
		}
		names = append(names, typeName)
	}
	return nil, errors.New(ui.NotFound("entity", name, ui.Suggest(name, names, 3), noColor))
}
