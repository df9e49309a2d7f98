package cmd

import (
	"encoding/json"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/render"
	"github.com/abhisek/persona/internal/store"
)

func newSessionsCmd(root *rootOptions) *cobra.Command {
	var (
		opts   store.ListOpts
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List assessment sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.ListSessions(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			lipgloss.Fprintln(out, render.Sessions(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status: active, completed or abandoned")
	cmd.Flags().StringVar(&opts.OwnerUserID, "owner", "", "Filter by owner user id")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of sessions to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print sessions as JSON")
	return cmd
}
