package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NickG503/World-Simulator/infrastructure/config"
)

// newSchemaCmd creates the schema command.
func (a *App) newSchemaCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration file JSON schema",
		Long: `Generate the JSON schema for worldsim configuration files. Point your
editor at it to get completion and validation when editing a config.

Examples:
  worldsim schema > worldsim-config.schema.json
  worldsim schema -o worldsim-config.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.SchemaJSON()
			if err != nil {
				return fmt.Errorf("generating schema: %w", err)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(data+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "wrote %s\n", outputPath)
				return nil
			}

			fmt.Fprintf(a.stdout, "%s\n", data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the schema to this file instead of stdout")

	return cmd
}
