package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/config"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/render"
	"github.com/abhisek/persona/internal/store"
)

func newLLMCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Inspect recorded LLM requests",
	}
	cmd.AddCommand(
		newLLMListCmd(root),
		newLLMViewCmd(root),
		newLLMStatsCmd(root),
	)
	return cmd
}

// openEventStore opens the SQLite event log without building an engine.
func openEventStore(root *rootOptions) (*store.Store, error) {
	cfg, err := loadConfig(root, nil)
	if err != nil {
		return nil, err
	}
	path := root.db
	if path == "" {
		if cfg.Store.Backend == config.BackendMemory {
			return nil, errNoEventLog
		}
		path = cfg.Store.Path
	}
	if path == "" {
		path, err = store.DefaultDBPath()
	} else {
		err = store.EnsureDir(path)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func newLLMListCmd(root *rootOptions) *cobra.Command {
	var (
		limit   int
		purpose string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent LLM requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openEventStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			var list []store.LLMRequestEvent
			for _, e := range events {
				if purpose == "" || e.Purpose == purpose {
					list = append(list, e)
				}
			}
			if limit > 0 && len(list) > limit {
				list = list[len(list)-limit:]
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No LLM requests found.")
				return nil
			}
			lipgloss.Fprintln(out, render.LLMRequests(list))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of requests to show")
	cmd.Flags().StringVarP(&purpose, "purpose", "p", "", "Filter by purpose (e.g. scenario-gen)")
	return cmd
}

func newLLMViewCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <seq>",
		Short: "View the full request and response of an LLM call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || seq < 1 {
				return fmt.Errorf("invalid sequence %q", args[0])
			}

			s, err := openEventStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{After: seq - 1, Limit: 1})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 || events[0].Sequence != seq {
				return fmt.Errorf("LLM request %d not found", seq)
			}
			e := events[0]

			out := cmd.OutOrStdout()
			sep := strings.Repeat("─", 60)
			fmt.Fprintf(out, "Seq:       %d\n", e.Sequence)
			fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
			fmt.Fprintf(out, "Model:     %s\n", e.Model)
			fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
			fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
			fmt.Fprintf(out, "Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, part.title, sep)
				if part.body == "" {
					fmt.Fprintln(out, "(not captured)")
					continue
				}
				fmt.Fprintln(out, part.body)
			}
			return nil
		},
	}
}

func newLLMStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show token usage and estimated cost per model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openEventStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM usage recorded yet.")
				return nil
			}
			usage := llm.SummarizeUsage(events)
			lipgloss.Fprintln(out, render.Usage(usage))

			var unpriced []string
			for _, u := range usage {
				if !u.Priced {
					unpriced = append(unpriced, u.Model)
				}
			}
			if len(unpriced) > 0 {
				fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
			}
			return nil
		},
	}
}
