package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/scenario"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	bank, err := scenario.DefaultBank()
	require.NoError(t, err)
	e, err := engine.New(engine.DefaultConfig(), bank, engine.NewMemoryStore())
	require.NoError(t, err)
	return e
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), makeReq(args))
	require.NoError(t, err, "handlers report failures in the result")
	require.NotNil(t, res)
	return res
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &v))
	return v
}

func startSession(t *testing.T, e Engine) string {
	t.Helper()
	res := call(t, NewStartTool(e).Handle, map[string]any{
		"owner_user_id":    "u-1",
		"business_context": map[string]any{"industry": "retail"},
	})
	v := decode[startView](t, res)
	require.NotEmpty(t, v.SessionID)
	assert.Equal(t, "active", v.Status)
	return v.SessionID
}

func TestDefinitions(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewStartTool(e).Definition(), ToolStart, nil},
		{NewNextTool(e).Definition(), ToolNext, []string{"session_id"}},
		{NewRespondTool(e).Definition(), ToolRespond, []string{"session_id", "scenario_id", "option_id"}},
		{NewCurrentTool(e).Definition(), ToolCurrent, []string{"session_id"}},
		{NewResultsTool(e).Definition(), ToolResults, []string{"session_id"}},
		{NewAbandonTool(e).Definition(), ToolAbandon, []string{"session_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.def.Name)
			assert.NotEmpty(t, tt.def.Description)
			assert.ElementsMatch(t, tt.required, tt.def.InputSchema.Required)
		})
	}

	start := NewStartTool(e).Definition()
	assert.Contains(t, start.InputSchema.Properties, "business_context")
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(newTestEngine(t), "test")
	tools := s.ListTools()
	assert.Len(t, tools, 6)
	for _, name := range []string{ToolStart, ToolNext, ToolRespond, ToolCurrent, ToolResults, ToolAbandon} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestFullFlow(t *testing.T) {
	e := newTestEngine(t)
	id := startSession(t, e)

	// Results before completion fail with a stable code.
	res := call(t, NewResultsTool(e).Handle, map[string]any{"session_id": id})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(res), "assessment_not_complete:"))

	step := decode[stepView](t, call(t, NewNextTool(e).Handle, map[string]any{"session_id": id}))
	require.NotNil(t, step.Scenario)
	require.Len(t, step.Scenario.Options, 4)
	assert.NotContains(t, resultText(call(t, NewNextTool(e).Handle, map[string]any{"session_id": id})),
		"theta_value", "scoring must not leak to clients")

	// A stale scenario id is rejected; assessment_current resyncs.
	res = call(t, NewRespondTool(e).Handle, map[string]any{
		"session_id": id, "scenario_id": "stale", "option_id": "A",
	})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(res), "scenario_mismatch:"))

	cur := decode[scenarioView](t, call(t, NewCurrentTool(e).Handle, map[string]any{"session_id": id}))
	assert.Equal(t, step.Scenario.ID, cur.ID)

	for n := 0; !step.Completed; n++ {
		require.Less(t, n, 15)
		step = decode[stepView](t, call(t, NewRespondTool(e).Handle, map[string]any{
			"session_id": id, "scenario_id": step.Scenario.ID, "option_id": "C",
		}))
	}
	require.NotNil(t, step.Profile)
	assert.Equal(t, 14, step.Administered)

	res = call(t, NewCurrentTool(e).Handle, map[string]any{"session_id": id})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(res), "No scenario is pending")

	results := call(t, NewResultsTool(e).Handle, map[string]any{"session_id": id})
	require.False(t, results.IsError)
	assert.Contains(t, resultText(results), `"readiness"`)
	assert.NotNil(t, results.StructuredContent)

	res = call(t, NewAbandonTool(e).Handle, map[string]any{"session_id": id})
	assert.True(t, strings.HasPrefix(resultText(res), "session_not_active:"))
}

func TestAbandon(t *testing.T) {
	e := newTestEngine(t)
	id := startSession(t, e)

	res := call(t, NewAbandonTool(e).Handle, map[string]any{"session_id": id})
	require.False(t, res.IsError, resultText(res))

	res = call(t, NewNextTool(e).Handle, map[string]any{"session_id": id})
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(res), "session_not_active:"))
}

func TestArgumentErrors(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"next without id", NewNextTool(e).Handle, map[string]any{}, "session_id"},
		{"respond without option", NewRespondTool(e).Handle, map[string]any{"session_id": "x", "scenario_id": "y"}, "option_id"},
		{"context not an object", NewStartTool(e).Handle, map[string]any{"business_context": "retail"}, "must be an object"},
		{"context value not a string", NewStartTool(e).Handle, map[string]any{"business_context": map[string]any{"size": 3.0}}, "business_context.size"},
		{"unknown session", NewNextTool(e).Handle, map[string]any{"session_id": "nope"}, "session_not_found:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, tt.handler, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestErrorCode(t *testing.T) {
	err := &engine.SessionError{Op: engine.OpRespond, SessionID: "s", Err: engine.ErrUnknownOption}
	assert.Equal(t, "unknown_option", ErrorCode(err))
	assert.Equal(t, "internal", ErrorCode(assert.AnError))
	assert.Contains(t, resultText(toolError(&engine.SessionError{Err: engine.ErrProviderTimeout})), "(retryable)")
}
