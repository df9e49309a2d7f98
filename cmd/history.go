package cmd

import (
	"errors"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/render"
	"github.com/abhisek/persona/internal/store"
)

var errNoEventLog = errors.New("no event log: the memory backend does not record events")

func newHistoryCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show the recorded answers and estimates of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Events == nil {
				return errNoEventLog
			}

			ctx := cmd.Context()
			id := args[0]
			events, err := a.Events.QueryResponseEvents(ctx, id, store.QueryOpts{})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			lifecycle, err := a.Events.QueryLifecycleEvents(ctx, id, store.QueryOpts{})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 && len(lifecycle) == 0 {
				fmt.Fprintf(out, "No events recorded for session %s.\n", id)
				return nil
			}
			for _, e := range lifecycle {
				fmt.Fprintf(out, "%s  %-9s  %d items\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Event, e.Administered)
			}
			if len(events) > 0 {
				lipgloss.Fprintln(out, render.Responses(events, a.Engine.Config().Dimensions.DisplayName))
			}
			return nil
		},
	}
}
