package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/application"
	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/infrastructure/visualizer"
)

// newRunsCmd creates the runs command group.
func (a *App) newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage stored simulation runs",
	}
	cmd.AddCommand(
		a.newRunsListCmd(),
		a.newRunsShowCmd(),
		a.newRunsDeleteCmd(),
		a.newRunsRenderCmd(),
	)
	return cmd
}

func (a *App) newRunsListCmd() *cobra.Command {
	var objectType string
	var since time.Duration
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			filter := history.ListFilter{ObjectType: objectType, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			sums, err := rt.simulator.ListRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sums)
			}

			if len(sums) == 0 {
				fmt.Fprintln(a.stdout, "no runs")
				return nil
			}
			for _, s := range sums {
				fmt.Fprintf(a.stdout, "%s  %-16s %4d node(s)  %s\n",
					s.ID, s.ObjectType, s.Nodes, s.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&objectType, "object-type", "", "Only runs of this object type")
	cmd.Flags().DurationVar(&since, "since", 0, "Only runs newer than this age (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (a *App) newRunsShowCmd() *cobra.Command {
	var nodeID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Long: `Show the summary, steps and outcome statistics of a stored run.
With --node, additionally rebuild that node's world from the root
snapshot and the deltas along its path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			insp, err := rt.simulator.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput && nodeID == "" {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(insp)
			}

			if !jsonOutput {
				a.printInspection(insp)
			}

			if nodeID != "" {
				rep, err := rt.simulator.Replay(cmd.Context(), args[0], nodeID)
				if err != nil {
					return err
				}
				if jsonOutput {
					enc := json.NewEncoder(a.stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rep)
				}
				fmt.Fprintf(a.stdout, "\nNode %s (%s, depth %d)\n", rep.Node.ID, rep.Node.Status, rep.Node.Depth)
				for _, attr := range rep.Snapshot.Attributes() {
					v, _ := rep.Snapshot.Get(attr)
					fmt.Fprintf(a.stdout, "  %s = %s\n", attr, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "Replay this node and show its world")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func (a *App) printInspection(insp *application.Inspection) {
	s := insp.Summary
	fmt.Fprintf(a.stdout, "Run %s\n", s.ID)
	fmt.Fprintf(a.stdout, "  Object: %s\n", s.ObjectType)
	fmt.Fprintf(a.stdout, "  Created: %s\n", s.CreatedAt.Format(time.RFC3339))

	if len(insp.Steps) > 0 {
		fmt.Fprintf(a.stdout, "  Steps:\n")
		for i, step := range insp.Steps {
			fmt.Fprintf(a.stdout, "    %d. %s\n", i+1, formatStep(step))
		}
	}

	fmt.Fprintf(a.stdout, "  Nodes: %d (depth %d, width %d)\n",
		insp.Stats.Nodes, insp.Stats.Depth, insp.Stats.Width)

	statuses := make([]graph.Status, 0, len(insp.StatusCounts))
	for st := range insp.StatusCounts {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, st := range statuses {
		fmt.Fprintf(a.stdout, "    %s: %d\n", st, insp.StatusCounts[st])
	}

	fmt.Fprintf(a.stdout, "  Leaves: %d\n", len(insp.Leaves))
}

// formatStep renders a step as "action(key=value, ...)" with sorted keys.
func formatStep(step history.Step) string {
	if len(step.Params) == 0 {
		return step.Action
	}
	keys := make([]string, 0, len(step.Params))
	for k := range step.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := step.Action + "("
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k + "=" + step.Params[k]
	}
	return out + ")"
}

func (a *App) newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := rt.simulator.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *App) newRunsRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <run-id> <output.html>",
		Short: "Render a stored run as an HTML graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := rt.simulator.Replay(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}

			r, err := visualizer.New()
			if err != nil {
				return err
			}
			if err := r.RenderFile(args[1], rep.Record); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", args[1])
			return nil
		},
	}
}
