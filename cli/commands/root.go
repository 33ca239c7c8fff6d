// Package commands provides the CLI command implementations for factlog.
package commands

import (
	"fmt"

	"github.com/factlog/factlog/cli/styles"
	"github.com/factlog/factlog/cli/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewRootCommand creates the root command for the factlog CLI
func NewRootCommand() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "factlog",
		Short: "Append-only fact store for Go",
		Long: ui.SimpleBanner() + `

Factlog is an append-only fact store with point-in-time entity
reconstruction. Entities are never updated in place; instead, facts
about them are asserted and retracted over time.

` + styles.Title.Render("Quick Start:") + `

  ` + styles.Code.Render("factlog init") + `             Initialize a new project
  ` + styles.Code.Render("factlog migrate") + `          Create the fact log schema
  ` + styles.Code.Render("factlog append") + `           Record a fact
  ` + styles.Code.Render("factlog entity <id>") + `      Reconstruct an entity
  ` + styles.Code.Render("factlog diagnose") + `         Check your setup

` + styles.Title.Render("Documentation:") + `

  https://github.com/factlog/factlog`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				styles.DisableColors()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewAppendCommand())
	rootCmd.AddCommand(NewEntityCommand())
	rootCmd.AddCommand(NewLogCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewDiagnoseCommand())
	rootCmd.AddCommand(NewVersionCommand(Version, Commit, BuildDate))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(styles.FormatError(err.Error()))
		return err
	}

	return nil
}
