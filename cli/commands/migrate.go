package commands

import (
	"fmt"

	"github.com/factlog/factlog/cli/styles"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the fact log schema",
		Long: `Create the fact log tables in the configured database.

The migration is idempotent: tables and indexes are created with
IF NOT EXISTS, so running it repeatedly is safe.

Examples:
  factlog migrate                # Create schema in configured database`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig()
			if err != nil {
				return fmt.Errorf("no factlog.yaml found: %w", err)
			}

			if cfg.Database.Driver == "memory" {
				fmt.Println(styles.FormatInfo("Memory driver requires no migration"))
				return nil
			}

			adapter, cleanup, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := adapter.Initialize(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println(styles.FormatSuccess(fmt.Sprintf("Fact log schema %q is up to date", cfg.Database.Schema)))
			return nil
		},
	}
}
