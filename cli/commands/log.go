package commands

import (
	"fmt"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/cli/styles"
	"github.com/factlog/factlog/cli/ui"
	"github.com/spf13/cobra"
)

// NewLogCommand creates the log command
func NewLogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the fact log",
		Long: `Inspect the fact log.

Examples:
  factlog log info               # Show log statistics
  factlog log tail               # Show the most recent facts
  factlog log tail --count 50    # Show the last 50 facts`,
	}

	cmd.AddCommand(newLogInfoCommand())
	cmd.AddCommand(newLogTailCommand())

	return cmd
}

func newLogInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show fact log statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			adapter, cleanup, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			info, err := adapter.GetLogInfo(ctx)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(styles.Title.Render(styles.IconLedger + " Fact Log"))
			fmt.Println()
			fmt.Println(styles.FormatKeyValue("Facts", fmt.Sprintf("%d", info.FactCount)))
			fmt.Println(styles.FormatKeyValue("Entities", fmt.Sprintf("%d", info.EntityCount)))
			fmt.Println(styles.FormatKeyValue("Head", fmt.Sprintf("%d", info.Head)))
			if !info.FirstAppendedAt.IsZero() {
				fmt.Println(styles.FormatKeyValue("First appended", info.FirstAppendedAt.Format(time.RFC3339)))
				fmt.Println(styles.FormatKeyValue("Last appended", info.LastAppendedAt.Format(time.RFC3339)))
			}

			return nil
		},
	}
}

func newLogTailCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent facts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			adapter, cleanup, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			store := factlog.New(adapter)

			head, err := store.Head(ctx)
			if err != nil {
				return err
			}

			fromSeq := uint64(0)
			if head > uint64(count) {
				fromSeq = head - uint64(count)
			}

			facts, err := store.LoadFromSeq(ctx, fromSeq, count)
			if err != nil {
				return err
			}

			if len(facts) == 0 {
				fmt.Println(styles.Muted.Render("The fact log is empty"))
				return nil
			}

			table := ui.NewTable("Seq", "Time", "Entity", "Attribute", "Op", "Value")
			for _, f := range facts {
				value := "-"
				if f.Operation == factlog.OpAssert {
					if decoded, err := store.DecodeValue(f); err == nil {
						value = formatValue(decoded)
					} else {
						value = string(f.Value)
					}
				}
				table.AddRow(
					fmt.Sprintf("%d", f.Seq),
					f.Time.Format(time.RFC3339),
					f.Entity,
					f.Attribute,
					f.Operation.String(),
					value,
				)
			}
			fmt.Println(table.Render())

			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "Number of facts to show")

	return cmd
}
