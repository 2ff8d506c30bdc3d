package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newCapabilitiesCmd creates the capabilities command.
func (a *App) newCapabilitiesCmd() *cobra.Command {
	var overrides []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "capabilities <object-type>",
		Short: "List which actions are applicable to an object",
		Long: `Instantiate an object type and report, for every action declared on
it, whether its preconditions can currently hold.

Examples:
  worldsim capabilities flashlight --kb ./kb
  worldsim capabilities flashlight --set battery.level=empty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			values, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			caps, err := rt.simulator.Capabilities(cmd.Context(), args[0], values)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(caps)
			}

			for _, c := range caps {
				marker := "-"
				if c.Applicable {
					marker = "+"
				}
				fmt.Fprintf(a.stdout, "%s %s\n", marker, c.Action)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil, "Override a root attribute (part.attr=level, repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
