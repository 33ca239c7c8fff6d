package commands

import (
	"encoding/json"
	"fmt"
	"time"

	factlog "github.com/factlog/factlog"
	"github.com/factlog/factlog/cli/styles"
	"github.com/spf13/cobra"
)

// NewAppendCommand creates the append command
func NewAppendCommand() *cobra.Command {
	var (
		retract bool
		at      string
	)

	cmd := &cobra.Command{
		Use:   "append <entity> <attribute> [value]",
		Short: "Record a fact in the log",
		Long: `Record a fact in the log.

The value is parsed as JSON; quote strings accordingly. Retractions
take no value.

Examples:
  factlog append user-1 status '"active"'       # Assert a fact
  factlog append user-1 age 42                  # Numeric value
  factlog append user-1 status --retract        # Retract an attribute
  factlog append user-1 status '"x"' --at 2026-01-15T10:00:00Z`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entity, attribute := args[0], args[1]

			when := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at time (want RFC 3339): %w", err)
				}
				when = parsed
			}

			var fact factlog.Fact
			if retract {
				if len(args) > 2 {
					return fmt.Errorf("retractions take no value")
				}
				fact = factlog.Retract(entity, attribute, when)
			} else {
				if len(args) < 3 {
					return fmt.Errorf("assertions require a value")
				}
				var value interface{}
				if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
					return fmt.Errorf("value is not valid JSON: %w", err)
				}
				fact = factlog.Assert(entity, attribute, value, when)
			}

			adapter, cleanup, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			store := factlog.New(adapter)
			if err := store.Append(ctx, fact); err != nil {
				return err
			}

			verb := "Asserted"
			if retract {
				verb = "Retracted"
			}
			fmt.Println(styles.FormatSuccess(fmt.Sprintf("%s %s/%s at %s", verb, entity, attribute, when.Format(time.RFC3339))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&retract, "retract", false, "Retract the attribute instead of asserting")
	cmd.Flags().StringVar(&at, "at", "", "Fact time in RFC 3339 format (default: now)")

	return cmd
}
