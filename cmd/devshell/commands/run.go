package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/core/ports"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [--manifest path] -- command [args...]",
		Short: "Run a command inside the materialized environment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, _ := cmd.Flags().GetString("manifest")

			dir, err := os.Getwd()
			if err != nil {
				return err
			}

			return c.app.Run(cmd.Context(), manifestPath, ports.Command{
				Args:   args,
				Dir:    dir,
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringP("manifest", "m", "", "Path to the manifest (default: nearest devshell manifest)")
	cmd.Flags().SetInterspersed(false)

	return cmd
}
