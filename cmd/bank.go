package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/dimension"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/render"
	"github.com/abhisek/persona/internal/scenario"
)

func newBankCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Inspect and validate scenario banks",
	}
	cmd.AddCommand(
		newBankValidateCmd(),
		newBankListCmd(root),
		newBankPreviewCmd(root),
	)
	return cmd
}

func newBankValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a bank document against the schema and item rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK: %d scenarios, version %s\n", b.Len(), b.Version())
			dims := dimension.Default()
			for _, d := range dims.All() {
				fmt.Fprintf(out, "  %-20s %3d\n", d.Name, b.Count(d.ID))
			}
			for _, id := range b.Dimensions() {
				if !dims.Contains(id) {
					fmt.Fprintf(out, "  %-20s %3d  (not a default dimension)\n", id, b.Count(id))
				}
			}
			return nil
		},
	}
}

func newBankListCmd(root *rootOptions) *cobra.Command {
	var dim string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenarios of the configured bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, nil)
			if err != nil {
				return err
			}
			b, err := scenario.DefaultBank()
			if cfg.Scenarios.BankPath != "" {
				b, err = scenario.LoadFile(cfg.Scenarios.BankPath)
			}
			if err != nil {
				return err
			}

			dims := b.Dimensions()
			if dim != "" {
				if b.Count(dim) == 0 {
					return fmt.Errorf("no scenarios for dimension %q (have: %s)", dim, strings.Join(dims, ", "))
				}
				dims = []string{dim}
			}
			var list []*scenario.Scenario
			for _, d := range dims {
				list = append(list, b.Scenarios(d)...)
			}
			lipgloss.Fprintln(cmd.OutOrStdout(), render.Scenarios(list))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dim, "dimension", "d", "", "Only list scenarios of this dimension id")
	return cmd
}

type previewOptions struct {
	dimension  string
	difficulty float64
	count      int
	context    map[string]string
}

func newBankPreviewCmd(root *rootOptions) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview LLM-generated scenarios for a dimension (no database)",
		Long: `Generate scenarios for one dimension and answer them interactively.

This is a stateless developer tool: no session, no estimates and no events
are stored. Useful for judging scenario quality before enabling generation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dimension, "dimension", "d", "", "Dimension id (required)")
	cmd.Flags().Float64Var(&opts.difficulty, "difficulty", 0, "Target difficulty on the theta scale")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 3, "Number of scenarios to generate")
	cmd.Flags().StringToStringVar(&opts.context, "context", nil, "Business context, e.g. --context industry=retail")
	_ = cmd.MarkFlagRequired("dimension")
	return cmd
}

func runPreview(cmd *cobra.Command, root *rootOptions, opts *previewOptions) error {
	cfg, err := loadConfig(root, nil)
	if err != nil {
		return err
	}
	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	dims := ecfg.Dimensions
	if !dims.Contains(opts.dimension) {
		return fmt.Errorf("unknown dimension %q (have: %s)", opts.dimension, strings.Join(dims.IDs(), ", "))
	}
	if err := cfg.LLM.Validate(); err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	logger, err := newLogger(cmd, root, cfg)
	if err != nil {
		return err
	}

	// No recorder: preview calls are not logged.
	ctx := cmd.Context()
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil, logger)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	gcfg := scenario.DefaultGeneratorConfig()
	if cfg.Scenarios.Discrimination > 0 {
		gcfg.Discrimination = cfg.Scenarios.Discrimination
	}
	gen := scenario.NewGenerator(provider, dims, gcfg)

	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	name := dims.DisplayName(opts.dimension)
	fmt.Fprintf(out, "Generating %d %s scenarios at difficulty %+.2f...\n\n", opts.count, name, opts.difficulty)

	for i := range opts.count {
		sc, err := gen.GetScenario(ctx, scenario.Request{
			Dimension:        opts.dimension,
			TargetDifficulty: opts.difficulty,
			BusinessContext:  opts.context,
		})
		if err != nil {
			lipgloss.Fprintln(out, render.Error(fmt.Errorf("scenario %d: %w", i+1, err)))
			continue
		}

		lipgloss.Fprintln(out, render.Scenario(sc, name, render.Progress{Administered: i, MaxItems: opts.count}, render.DefaultWidth))
		answer, ok := prompt(out, in)
		if !ok || strings.EqualFold(answer, "q") {
			break
		}
		if o, found := sc.Option(strings.ToUpper(answer)); found {
			lipgloss.Fprintln(out, render.Hint(fmt.Sprintf("%s scores %+.2f on %s", o.ID, o.ThetaValue, name)))
		} else if answer != "" {
			lipgloss.Fprintln(out, render.Hint("Not an option; skipped."))
		}
		fmt.Fprintln(out)
	}
	return in.Err()
}
