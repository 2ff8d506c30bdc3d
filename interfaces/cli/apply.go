package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/application"
	"github.com/NickG503/World-Simulator/domain/transition"
)

// applyOptions holds options for the apply command.
type applyOptions struct {
	params     []string
	overrides  []string
	jsonOutput bool
	full       bool
}

// newApplyCmd creates the apply command.
func (a *App) newApplyCmd() *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <object-type> <action>",
		Short: "Apply a single action and show its branches",
		Long: `Instantiate an object type and apply one action to it, without
building a graph or persisting anything. Partial knowledge makes the
outcome branch; every branch is shown.

Examples:
  # Apply an action to the default instance
  worldsim apply flashlight switch_on --kb ./kb

  # Bind an action parameter
  worldsim apply flashlight set_level -p level=high

  # Start from a known world
  worldsim apply flashlight discharge --set battery.level=low

  # Show resulting snapshots for every branch
  worldsim apply flashlight discharge --full`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			params, err := parseParams(opts.params)
			if err != nil {
				return err
			}
			overrides, err := parseOverrides(opts.overrides)
			if err != nil {
				return err
			}

			result, err := rt.simulator.Apply(cmd.Context(), application.ApplyRequest{
				ObjectType: args[0],
				Overrides:  overrides,
				Action:     args[1],
				Params:     params,
			})
			if err != nil {
				return err
			}
			return a.printTransition(result, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Action parameter (key=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "Override a root attribute (part.attr=level, repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Show the full snapshot of every branch")

	return cmd
}

func (a *App) printTransition(result *application.TransitionResult, opts *applyOptions) error {
	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(a.stdout, "%d branch(es)\n", len(result.Branches))
	for i, b := range result.Branches {
		a.printBranch(i, b, opts.full)
	}
	return nil
}

func (a *App) printBranch(i int, b transition.Branch, full bool) {
	fmt.Fprintf(a.stdout, "\n[%d] %s", i, b.Status)
	if !b.Condition.IsZero() {
		fmt.Fprintf(a.stdout, "  assuming %s", b.Condition)
	}
	fmt.Fprintln(a.stdout)

	for _, v := range b.Violations {
		fmt.Fprintf(a.stdout, "    violated: %s\n", v.Dependency)
	}
	for _, d := range b.Deferred {
		fmt.Fprintf(a.stdout, "    deferred: %s\n", d.Dependency)
	}
	for _, c := range b.Changes {
		fmt.Fprintf(a.stdout, "    %s: %s -> %s (%s)\n", c.Attribute, c.Before, c.After, c.Kind)
	}

	if full {
		for _, attr := range b.Snapshot.Attributes() {
			v, _ := b.Snapshot.Get(attr)
			fmt.Fprintf(a.stdout, "      %s = %s\n", attr, v)
		}
	}
}
