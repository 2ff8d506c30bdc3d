package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/infrastructure/loader"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	strict bool
	watch  bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the knowledge base",
		Long: `Load and validate the knowledge base directory.

This command checks:
  - YAML structure of spaces, object types and actions
  - Space, attribute and level references
  - Condition and effect shapes
  - Parameter declarations and choices

Examples:
  # Validate the configured knowledge base
  worldsim validate --kb ./kb

  # Reject definition files with unknown fields
  worldsim validate --kb ./kb --strict

  # Keep watching the directory and re-validate on change
  worldsim validate --kb ./kb --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateKB(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject definition files with unknown fields")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Watch the directory and re-validate on change")

	return cmd
}

// validateKB loads the knowledge base and reports the outcome.
func (a *App) validateKB(cmd *cobra.Command, opts *validateOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	var loaderOpts []loader.Option
	if opts.strict || cfg.KnowledgeBase.StrictFields {
		loaderOpts = append(loaderOpts, loader.WithStrictFields())
	}
	l := loader.New(loaderOpts...)

	report := func(base *kb.KnowledgeBase, err error) {
		if err != nil {
			fmt.Fprintf(a.stderr, "validation failed: %v\n", err)
			return
		}
		fmt.Fprintf(a.stdout, "OK %d space(s), %d object type(s), %d action(s)\n",
			len(base.Spaces), len(base.Objects), len(base.Actions))
	}

	if opts.watch {
		fmt.Fprintf(a.stdout, "watching %s (ctrl-c to stop)\n", cfg.KnowledgeBase.Dir)
		report(l.Load(cfg.KnowledgeBase.Dir))
		err := l.Watch(cmd.Context(), cfg.KnowledgeBase.Dir, report)
		if err != nil && cmd.Context().Err() != nil {
			return nil // interrupted by the user
		}
		return err
	}

	base, err := l.Load(cfg.KnowledgeBase.Dir)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	report(base, nil)
	fmt.Fprintf(a.stdout, "All validations passed\n")
	return nil
}
