package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/devshell/internal/adapters/render"
)

func (c *CLI) newFlattenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten [manifest...]",
		Short: "Print the de-duplicated requirements of one or more manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := render.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			set, err := c.app.Flatten(cmd.Context(), args)
			if err != nil {
				return err
			}
			return render.Requirements(cmd.OutOrStdout(), set, format)
		},
	}

	cmd.Flags().StringP("format", "f", string(render.FormatAuto), "Output format: auto, table, json or plain")

	return cmd
}
