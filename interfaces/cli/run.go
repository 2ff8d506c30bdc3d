package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/application"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/infrastructure/visualizer"
)

// runOptions holds options for the run command.
type runOptions struct {
	overrides  []string
	jsonOutput bool
	htmlPath   string
	noSave     bool
	timeout    time.Duration
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <object-type> <action>...",
		Short: "Run a simulation over a sequence of actions",
		Long: `Run a simulation: instantiate the object type, apply the actions in
order, and expand every consistent branch into a graph of possible
worlds. Branches that reach the same world are merged.

Actions take parameters with a colon-separated suffix:
  set_level:level=high

Examples:
  # Two-step run, persisted to the configured store
  worldsim run flashlight switch_on discharge --kb ./kb

  # Start from a known world, don't persist
  worldsim run flashlight discharge --set battery.level=high --no-save

  # Render the resulting graph to HTML
  worldsim run flashlight discharge discharge --html out.html`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulation(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "Override a root attribute (part.attr=level, repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run record as JSON")
	cmd.Flags().StringVar(&opts.htmlPath, "html", "", "Write an HTML visualization to this path")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not persist the run")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Abort the run after this duration")

	return cmd
}

func (a *App) runSimulation(cmd *cobra.Command, args []string, opts *runOptions) error {
	rt, cleanup, err := a.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return err
	}

	steps := make([]history.Step, 0, len(args)-1)
	for _, arg := range args[1:] {
		step, err := parseStep(arg)
		if err != nil {
			return err
		}
		steps = append(steps, step)
	}

	sim := rt.simulator
	if opts.noSave {
		// Rebuild without a store; the run stays in memory.
		sim, err = application.NewSimulator(application.SimulatorConfig{KB: rt.kb})
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	result, err := sim.Run(ctx, application.RunRequest{
		ObjectType: args[0],
		Overrides:  overrides,
		Steps:      steps,
	})
	if err != nil {
		return err
	}

	if opts.htmlPath != "" {
		r, err := visualizer.New()
		if err != nil {
			return err
		}
		if err := r.RenderFile(opts.htmlPath, result.Record); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Record)
	}

	fmt.Fprintf(a.stdout, "Run %s\n", result.RunID)
	fmt.Fprintf(a.stdout, "  Object: %s\n", args[0])
	fmt.Fprintf(a.stdout, "  Nodes: %d (%d ok, %d failed, %d merged)\n",
		result.Stats.Nodes, result.Stats.SuccessNodes, result.Stats.FailNodes, result.Stats.MergedNodes)
	fmt.Fprintf(a.stdout, "  Depth: %d, width: %d, leaves: %d\n",
		result.Stats.Depth, result.Stats.Width, result.Stats.Leaves)
	if result.Persisted {
		fmt.Fprintf(a.stdout, "  Saved to %s store\n", rt.cfg.Storage.Backend)
	}
	if opts.htmlPath != "" {
		fmt.Fprintf(a.stdout, "  Visualization: %s\n", opts.htmlPath)
	}
	return nil
}
