package cmd

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/persona/internal/engine"
)

var sessionIDRe = regexp.MustCompile(`Session ([0-9a-f-]{36})`)

// isolate points the CLI at a missing config file and a fresh database.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"PRESET", "STORE", "DB", "REDIS_ADDR", "BANK", "LOG_LEVEL", "GENERATE", "LLM_PROVIDER"} {
		t.Setenv("PERSONA_"+name, "")
	}
	dir := t.TempDir()
	t.Setenv("PERSONA_CONFIG", filepath.Join(dir, "absent.yaml"))
	return filepath.Join(dir, "persona.db")
}

// execute runs the root command with stdin and returns plain stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return ansi.Strip(out.String()), err
}

func sessionID(t *testing.T, out string) string {
	t.Helper()
	m := sessionIDRe.FindStringSubmatch(out)
	require.Len(t, m, 2, "no session id in output:\n%s", out)
	return m[1]
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "persona (devel)\n", out)
}

func TestRun_CompletesAssessment(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, strings.Repeat("C\n", 14),
		"--db", db, "run", "--owner", "ann")
	require.NoError(t, err)

	id := sessionID(t, out)
	assert.Contains(t, out, "Item 1 of up to 15")
	assert.Contains(t, out, "Entrepreneurial readiness")
	assert.Contains(t, out, "14 items")
	assert.Contains(t, out, "Session "+id+" complete.")

	out, err = execute(t, "", "--db", db, "sessions", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "ann")

	out, err = execute(t, "", "--db", db, "results", id, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"readiness"`)

	out, err = execute(t, "", "--db", db, "history", id)
	require.NoError(t, err)
	assert.Contains(t, out, "started")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Dimension")
}

func TestRun_PauseAndResume(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "C\nq\n", "--db", db, "run")
	require.NoError(t, err)
	id := sessionID(t, out)
	assert.Contains(t, out, "Paused. Resume with: persona run --resume "+id)

	_, err = execute(t, "", "--db", db, "results", id)
	assert.ErrorIs(t, err, engine.ErrAssessmentNotComplete)

	out, err = execute(t, "X\n"+strings.Repeat("C\n", 13), "--db", db, "run", "--resume", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Please answer A, B, C or D.")
	assert.Contains(t, out, "14 items")

	// Resuming a completed session shows its profile.
	out, err = execute(t, "", "--db", db, "run", "--resume", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Entrepreneurial readiness")
}

func TestRun_EOFPauses(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Paused.")
}

func TestAbandon(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "q\n", "--db", db, "run", "--owner", "bob")
	require.NoError(t, err)
	id := sessionID(t, out)

	out, err = execute(t, "", "--db", db, "abandon", id)
	require.NoError(t, err)
	assert.Contains(t, out, "abandoned")

	_, err = execute(t, "", "--db", db, "abandon", id)
	assert.ErrorIs(t, err, engine.ErrSessionNotActive)

	out, err = execute(t, "", "--db", db, "sessions", "--owner", "bob", "--status", "abandoned")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = execute(t, "", "--db", db, "sessions", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")
}

func TestRun_QuickPreset(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "q\n", "--db", db, "run", "--preset", "quick", "--context", "industry=retail,stage=seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Item 1 of up to 8")

	_, err = execute(t, "", "--db", db, "run", "--preset", "nope")
	assert.Error(t, err)
}

func TestUnknownSession(t *testing.T) {
	db := isolate(t)
	_, err := execute(t, "", "--db", db, "results", "missing")
	assert.ErrorIs(t, err, engine.ErrSessionNotFound)
}

func TestHistory_MemoryBackend(t *testing.T) {
	isolate(t)
	t.Setenv("PERSONA_STORE", "memory")

	_, err := execute(t, "", "history", "any")
	assert.ErrorIs(t, err, errNoEventLog)
}

func TestBank(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "bank", "validate", filepath.Join("..", "internal", "scenario", "default_bank.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "OK:")
	assert.Contains(t, out, "Risk Taking")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_, err = execute(t, "", "bank", "validate", bad)
	assert.Error(t, err)

	out, err = execute(t, "", "bank", "list", "-d", "resilience")
	require.NoError(t, err)
	assert.Contains(t, out, "resilience")
	assert.NotContains(t, out, "risk_taking")

	_, err = execute(t, "", "bank", "list", "-d", "nope")
	assert.ErrorContains(t, err, "no scenarios for dimension")
}

func TestBankPreview(t *testing.T) {
	isolate(t)
	t.Setenv("PERSONA_LLM_PROVIDER", "mock")

	_, err := execute(t, "", "bank", "preview", "-d", "nope")
	assert.ErrorContains(t, err, "unknown dimension")

	// The mock provider has no queued responses, so every generation fails.
	out, err := execute(t, "", "bank", "preview", "-d", "autonomy", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Generating 2 Autonomy scenarios")
	assert.Contains(t, out, "scenario 2")
}

func TestLLM_Empty(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "", "--db", db, "llm", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM usage recorded yet.")

	out, err = execute(t, "", "--db", db, "llm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM requests found.")

	_, err = execute(t, "", "--db", db, "llm", "view", "1")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, "", "--db", db, "llm", "view", "abc")
	assert.ErrorContains(t, err, "invalid sequence")
}

func TestLogLevelFlag(t *testing.T) {
	db := isolate(t)
	_, err := execute(t, "q\n", "--db", db, "--log-level", "loud", "run")
	assert.ErrorContains(t, err, "--log-level")
}
