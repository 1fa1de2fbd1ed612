package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/adapters/render"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [manifest]",
		Short: "Materialize the environment and print it as shell exports",
		Long: "Materialize the environment and print it as shell exports.\n\n" +
			"The output can be sourced: eval \"$(devshell env)\"",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := singleManifest(args)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			format := render.FormatPlain
			if asJSON {
				format = render.FormatJSON
			}

			env, err := c.app.Env(cmd.Context(), path)
			if err != nil {
				return err
			}
			return render.Environment(cmd.OutOrStdout(), env, format)
		},
	}

	cmd.Flags().Bool("json", false, "Print the environment as JSON")

	return cmd
}
