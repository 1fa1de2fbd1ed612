package commands

import "github.com/spf13/cobra"

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest...]",
		Short: "Validate environment manifests",
		Long: "Validate environment manifests.\n\n" +
			"Without arguments the nearest devshell manifest above the working directory is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Check(cmd.Context(), args)
		},
	}
}
