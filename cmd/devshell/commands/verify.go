package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/adapters/render"
	"go.trai.ch/devshell/internal/core/domain"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [manifest]",
		Short: "Check that every requirement exists in the package index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := singleManifest(args)
			if err != nil {
				return err
			}

			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := render.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			results, err := c.app.Verify(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := render.VerifyResults(cmd.OutOrStdout(), results, format); err != nil {
				return err
			}

			for _, res := range results {
				if !res.Found {
					return domain.ErrPackagesMissing
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", string(render.FormatAuto), "Output format: auto, table, json or plain")

	return cmd
}
