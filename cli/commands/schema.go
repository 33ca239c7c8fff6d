package commands

import (
	"fmt"
	"os"

	"github.com/factlog/factlog/adapters/postgres"
	"github.com/factlog/factlog/cli/styles"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage fact log schema",
		Long: `Generate and inspect the fact log database schema.

Examples:
  factlog schema generate           # Generate schema SQL
  factlog schema print              # Print the schema`,
	}

	cmd.AddCommand(newSchemaGenerateCommand())
	cmd.AddCommand(newSchemaPrintCommand())

	return cmd
}

func newSchemaGenerateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate fact log schema SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfigOrDefault()
			if err != nil {
				return err
			}

			schema := postgres.Schema(cfg.Database.Schema)

			if output != "" {
				if err := os.WriteFile(output, []byte(schema), 0644); err != nil {
					return err
				}
				fmt.Println(styles.FormatSuccess(fmt.Sprintf("Schema written to %s", output)))
			} else {
				fmt.Println(schema)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func newSchemaPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the fact log schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfigOrDefault()
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(styles.Title.Render(styles.IconDatabase + " Fact Log Schema"))
			fmt.Println()
			fmt.Println(styles.Code.Render(postgres.Schema(cfg.Database.Schema)))

			return nil
		},
	}
}
