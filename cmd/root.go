package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/app"
	"github.com/abhisek/persona/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	db       string
	config   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Adaptive entrepreneurial personality assessment",
		Long: `Persona measures seven entrepreneurial traits with an adaptive test.
Each answer refines the trait estimates and the next scenario targets
the trait that is least certain. The standard preset takes 9 to 15 items.

Running persona without a subcommand starts a new assessment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssessment(cmd, opts, &runOptions{})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.db, "db", "", "Path to SQLite database file (overrides PERSONA_DB and the config file)")
	flags.StringVar(&opts.config, "config", "", "Path to config file (default $PERSONA_CONFIG or the user config dir)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config file)")

	cmd.AddCommand(
		newRunCmd(opts),
		newResultsCmd(opts),
		newSessionsCmd(opts),
		newHistoryCmd(opts),
		newAbandonCmd(opts),
		newBankCmd(opts),
		newServeCmd(opts),
		newLLMCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads the config file and applies mutate, then re-validates.
func loadConfig(opts *rootOptions, mutate func(*config.File)) (config.File, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return config.File{}, err
	}
	if mutate != nil {
		mutate(&cfg)
		if err := cfg.Validate(); err != nil {
			return config.File{}, err
		}
	}
	return cfg, nil
}

// newLogger writes text logs to the command's stderr so they never mix with
// rendered output or the MCP stream.
func newLogger(cmd *cobra.Command, opts *rootOptions, cfg config.File) (*slog.Logger, error) {
	level := cfg.LogLevel()
	if opts.logLevel != "" {
		if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
		}
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	return slog.New(h), nil
}

// openApp loads configuration and assembles the engine with its stores.
// The caller must Close the returned App.
func openApp(cmd *cobra.Command, opts *rootOptions, mutate func(*config.File)) (*app.App, error) {
	cfg, err := loadConfig(opts, mutate)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, opts, cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.Open(cmd.Context(), cfg, app.Options{DBPath: opts.db, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return a, nil
}
