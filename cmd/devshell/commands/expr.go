package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newExprCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expr [manifest]",
		Short: "Print the Nix expression describing the environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := singleManifest(args)
			if err != nil {
				return err
			}

			expr, err := c.app.Expr(cmd.Context(), path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), expr)
			return err
		},
	}
}
