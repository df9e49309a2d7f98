package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAbandonCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <session-id>",
		Short: "Abandon an active assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Engine.Abandon(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s abandoned.\n", args[0])
			return nil
		},
	}
}
