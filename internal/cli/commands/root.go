// Package commands implements the hookctl command tree
package commands

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/smartstore/Smartstore-sub032/internal/config"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// options are the persistent flags shared by every command
type options struct {
	configPath string
	noColor    bool
	cfg        *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "hookctl",
		Short: "Inspect and exercise the entity save hook engine",
		Long: `hookctl shows which hooks the engine discovered, which of them apply to an
entity type, and runs a sample save session against a scratch database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./hooks.yml)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newCatalogCommand(opts))
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newDemoCommand(opts))

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			title := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			for _, line := range [][2]string{
				{"hookctl version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", runtime.Version()},
			} {
				title.Fprint(out, line[0])
				fmt.Fprintln(out, line[1])
			}
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
