package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/domain/object"
)

// newShowCmd creates the show command.
func (a *App) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <object-type>",
		Short: "Show an object type definition",
		Long: `Show the parts, attributes, constraints and actions of an object
type as loaded from the knowledge base.

Examples:
  worldsim show flashlight --kb ./kb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := a.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			return a.showObject(rt, args[0])
		},
	}
}

func (a *App) showObject(rt *runtime, name string) error {
	typ, err := rt.kb.Object(name)
	if err != nil {
		return err
	}

	attrCount := 0
	for _, part := range typ.Parts {
		attrCount += len(part.Attributes)
	}
	fmt.Fprintf(a.stdout, "%s (object type)\n", typ.Name)
	fmt.Fprintf(a.stdout, "Parts: %d, Attributes: %d, Constraints: %d\n\n",
		len(typ.Parts), attrCount, len(rt.kb.Constraints[name]))

	for _, part := range typ.Parts {
		fmt.Fprintf(a.stdout, "%s\n", part.Name)
		for _, attr := range part.Attributes {
			fmt.Fprintf(a.stdout, "  %-20s %s\n", attr.Name, a.describeAttribute(rt, attr))
		}
	}

	if deps := rt.kb.Constraints[name]; len(deps) > 0 {
		fmt.Fprintf(a.stdout, "\nConstraints\n")
		for _, dep := range deps {
			fmt.Fprintf(a.stdout, "  %s\n", dep.Name)
		}
	}

	if actions := rt.kb.ActionsFor(name); len(actions) > 0 {
		fmt.Fprintf(a.stdout, "\nActions\n")
		for _, act := range actions {
			line := act.Name
			if len(act.Parameters) > 0 {
				names := make([]string, len(act.Parameters))
				for i, p := range act.Parameters {
					names[i] = p.Name
				}
				line += "(" + strings.Join(names, ", ") + ")"
			}
			fmt.Fprintf(a.stdout, "  %s\n", line)
		}
	}

	return nil
}

func (a *App) describeAttribute(rt *runtime, attr object.AttributeSpec) string {
	desc := attr.Space
	if sp, err := rt.kb.Space(attr.Space); err == nil {
		desc += " {" + strings.Join(sp.FullSet(), ", ") + "}"
	}
	if attr.Default != "" {
		desc += " default=" + attr.Default
	}
	if !attr.Mutable {
		desc += " immutable"
	}
	return desc
}
