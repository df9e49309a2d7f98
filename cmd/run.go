package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/persona/internal/config"
	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/render"
	"github.com/abhisek/persona/internal/session"
)

type runOptions struct {
	owner    string
	context  map[string]string
	resume   string
	preset   string
	generate bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take an assessment in the terminal",
		Long: `Start a new assessment, or continue a paused one with --resume.

Answer each scenario with A, B, C or D. Enter q to pause; the session is
saved and can be resumed later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssessment(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owner user id recorded on the session")
	cmd.Flags().StringToStringVar(&opts.context, "context", nil, "Business context, e.g. --context industry=retail,stage=seed")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Resume the session with this id")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Assessment preset: standard, quick or thorough")
	cmd.Flags().BoolVar(&opts.generate, "generate", false, "Generate scenarios with the configured LLM, falling back to the bank")
	return cmd
}

func runAssessment(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	a, err := openApp(cmd, root, func(f *config.File) {
		if opts.preset != "" {
			f.Assessment.Preset = opts.preset
		}
		if opts.generate {
			f.Scenarios.Generate = true
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	e := a.Engine

	id := opts.resume
	if id == "" {
		s, err := e.Start(ctx, engine.StartRequest{OwnerUserID: opts.owner, BusinessContext: opts.context})
		if err != nil {
			return err
		}
		id = s.ID
		lipgloss.Fprintln(out, render.Hint("Session "+id))
	} else {
		s, err := e.Session(ctx, id)
		if err != nil {
			return err
		}
		if s.Status == session.StatusCompleted {
			lipgloss.Fprintln(out, render.Profile(s.Profile, render.DefaultWidth))
			return nil
		}
	}

	step, err := e.NextItem(ctx, id)
	if err != nil {
		return err
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	dims := e.Config().Dimensions
	show := true
	for !step.Completed {
		if show {
			sc := step.Scenario
			p := render.Progress{Administered: step.Administered, MaxItems: step.MaxItems}
			lipgloss.Fprintln(out, render.Scenario(sc, dims.DisplayName(sc.Dimension), p, render.DefaultWidth))
		}

		answer, ok := prompt(out, in)
		if !ok || strings.EqualFold(answer, "q") {
			lipgloss.Fprintln(out, render.Hint(fmt.Sprintf("Paused. Resume with: persona run --resume %s", id)))
			return in.Err()
		}

		next, err := e.Respond(ctx, id, step.Scenario.ID, strings.ToUpper(answer))
		switch {
		case errors.Is(err, engine.ErrUnknownOption):
			lipgloss.Fprintln(out, render.Hint("Please answer A, B, C or D."))
			show = false
			continue
		case engine.Retryable(err):
			lipgloss.Fprintln(out, render.Error(err))
			lipgloss.Fprintln(out, render.Hint("Your answer was not recorded. Please answer again."))
			show = false
			continue
		case err != nil:
			return err
		}
		step = next
		show = true
	}

	lipgloss.Fprintln(out, render.Profile(step.Profile, render.DefaultWidth))
	lipgloss.Fprintln(out, render.Hint("Session "+id+" complete."))
	return nil
}

func prompt(out io.Writer, in *bufio.Scanner) (string, bool) {
	fmt.Fprint(out, "Your choice (A-D, q to pause): ")
	if !in.Scan() {
		fmt.Fprintln(out)
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}
