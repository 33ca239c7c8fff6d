package commands

import (
	"encoding/json"
	"fmt"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/cli/styles"
	"github.com/factlog/factlog/cli/ui"
	"github.com/spf13/cobra"
)

// NewEntityCommand creates the entity command
func NewEntityCommand() *cobra.Command {
	var (
		asOf    string
		history bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "entity <id>",
		Short: "Reconstruct an entity from its facts",
		Long: `Reconstruct an entity's attribute map by replaying its facts.

By default the entity is reconstructed as of now. Use --as-of to see
the entity at an earlier point in time, or --history to see every
revision up to that point.

Examples:
  factlog entity user-1                              # Current state
  factlog entity user-1 --as-of 2026-01-15T10:00:00Z # Point in time
  factlog entity user-1 --history                    # All revisions
  factlog entity user-1 --json                       # Machine-readable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entity := args[0]

			when := time.Time{}
			if asOf != "" {
				parsed, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of time (want RFC 3339): %w", err)
				}
				when = parsed
			}

			adapter, cleanup, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			store := factlog.New(adapter)
			reconstructor := factlog.NewReconstructor(store)

			if history {
				return printHistory(cmd, reconstructor, entity, when, asJSON)
			}

			snapshot, err := reconstructor.Reconstruct(ctx, entity, when)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Println()
			fmt.Println(styles.Title.Render(styles.IconLedger + " " + entity))
			fmt.Println()

			if snapshot.IsEmpty() {
				fmt.Println(styles.Muted.Render("No attributes (entity unknown or fully retracted)"))
				return nil
			}

			table := ui.NewTable("Attribute", "Value")
			for _, attr := range snapshot.Attributes() {
				table.AddRow(attr, formatValue(snapshot[attr]))
			}
			fmt.Println(table.Render())

			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Reconstruct as of this RFC 3339 time (default: now)")
	cmd.Flags().BoolVar(&history, "history", false, "Show every revision of the entity")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func printHistory(cmd *cobra.Command, r *factlog.Reconstructor, entity string, asOf time.Time, asJSON bool) error {
	revisions, err := r.History(cmd.Context(), entity, asOf)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(revisions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println()
	fmt.Println(styles.Title.Render(styles.IconLedger + " " + entity + " history"))
	fmt.Println()

	if len(revisions) == 0 {
		fmt.Println(styles.Muted.Render("No facts recorded for this entity"))
		return nil
	}

	for _, rev := range revisions {
		fmt.Println(styles.Subtitle.Render(rev.Time.Format(time.RFC3339)) + " " + styles.Dim.Render(fmt.Sprintf("(seq %d)", rev.Seq)))
		for _, attr := range rev.Snapshot.Attributes() {
			fmt.Printf("  %s %s\n", styles.Muted.Render(attr+":"), formatValue(rev.Snapshot[attr]))
		}
		fmt.Println()
	}

	return nil
}

func formatValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
