package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/mcpserver"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve assessments as MCP tools over stdio",
		Long: `Run an MCP server on stdin/stdout so an AI assistant can administer
assessments. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			a, err := openApp(cmd, root, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			s := mcpserver.New(a.Engine, version)
			errLog := log.New(cmd.ErrOrStderr(), "persona: ", log.LstdFlags)
			err = mcpserver.Serve(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout(), errLog)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
