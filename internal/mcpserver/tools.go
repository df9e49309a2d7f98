// Package mcpserver exposes the assessment engine as MCP tools.
//
// Each tool is a struct holding the engine, with Definition() returning the
// mcp.Tool schema and Handle() serving calls. Engine failures come back as
// tool errors prefixed with a stable code so clients can branch on them.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/persona/internal/engine"
	"github.com/abhisek/persona/internal/scenario"
	"github.com/abhisek/persona/internal/session"
)

// Engine is the part of engine.Engine the tools call.
type Engine interface {
	Start(ctx context.Context, req engine.StartRequest) (*session.Session, error)
	NextItem(ctx context.Context, id string) (*engine.Step, error)
	Respond(ctx context.Context, id, scenarioID, optionID string) (*engine.Step, error)
	Results(ctx context.Context, id string) (*session.Profile, error)
	Abandon(ctx context.Context, id string) error
	CurrentScenario(ctx context.Context, id string) (*scenario.Scenario, error)
}

// Tool names.
const (
	ToolStart   = "assessment_start"
	ToolNext    = "assessment_next"
	ToolRespond = "assessment_respond"
	ToolCurrent = "assessment_current"
	ToolResults = "assessment_results"
	ToolAbandon = "assessment_abandon"
)

// ─── StartTool ──────────────────────────────────────────────────────────────

// StartTool handles assessment_start.
type StartTool struct {
	engine Engine
}

// NewStartTool creates a StartTool.
func NewStartTool(e Engine) *StartTool { return &StartTool{engine: e} }

// Definition returns the MCP tool definition for assessment_start.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolStart,
		mcp.WithDescription(
			"Start a new adaptive personality assessment. Returns the session id; "+
				"call assessment_next with it to get the first scenario.",
		),
		mcp.WithString("owner_user_id",
			mcp.Description("Opaque id of the person taking the assessment"),
		),
		mcp.WithObject("business_context",
			mcp.Description("Optional string key/values (e.g. industry, stage) used to personalize scenarios"),
			mcp.AdditionalProperties(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the assessment_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bc, err := stringMap(req.GetArguments()["business_context"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := t.engine.Start(ctx, engine.StartRequest{
		OwnerUserID:     req.GetString("owner_user_id", ""),
		BusinessContext: bc,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(startView{SessionID: s.ID, Status: string(s.Status)})
}

// ─── NextTool ───────────────────────────────────────────────────────────────

// NextTool handles assessment_next.
type NextTool struct {
	engine Engine
}

// NewNextTool creates a NextTool.
func NewNextTool(e Engine) *NextTool { return &NextTool{engine: e} }

// Definition returns the MCP tool definition for assessment_next.
func (t *NextTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolNext,
		mcp.WithDescription(
			"Get the next scenario of a session, or the final profile if the assessment is complete. "+
				"Calling it again before responding returns the same scenario.",
		),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id from assessment_start")),
	)
}

// Handle processes the assessment_next tool call.
func (t *NextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	step, err := t.engine.NextItem(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(newStepView(step))
}

// ─── RespondTool ────────────────────────────────────────────────────────────

// RespondTool handles assessment_respond.
type RespondTool struct {
	engine Engine
}

// NewRespondTool creates a RespondTool.
func NewRespondTool(e Engine) *RespondTool { return &RespondTool{engine: e} }

// Definition returns the MCP tool definition for assessment_respond.
func (t *RespondTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolRespond,
		mcp.WithDescription(
			"Answer the pending scenario. Returns the next scenario, or the final profile when the assessment completes.",
		),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("Id of the scenario being answered")),
		mcp.WithString("option_id",
			mcp.Required(),
			mcp.Description("Chosen option"),
			mcp.Enum(scenario.OptionIDs...),
		),
	)
}

// Handle processes the assessment_respond tool call.
func (t *RespondTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args [3]string
	for i, key := range []string{"session_id", "scenario_id", "option_id"} {
		v, err := req.RequireString(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args[i] = v
	}
	step, err := t.engine.Respond(ctx, args[0], args[1], args[2])
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(newStepView(step))
}

// ─── CurrentTool ────────────────────────────────────────────────────────────

// CurrentTool handles assessment_current.
type CurrentTool struct {
	engine Engine
}

// NewCurrentTool creates a CurrentTool.
func NewCurrentTool(e Engine) *CurrentTool { return &CurrentTool{engine: e} }

// Definition returns the MCP tool definition for assessment_current.
func (t *CurrentTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolCurrent,
		mcp.WithDescription(
			"Return the scenario awaiting a response without changing the session. "+
				"Use it to resync after a scenario_mismatch error.",
		),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}

// Handle processes the assessment_current tool call.
func (t *CurrentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sc, err := t.engine.CurrentScenario(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if sc == nil {
		return mcp.NewToolResultText("No scenario is pending. Call assessment_next."), nil
	}
	return jsonResult(newScenarioView(sc))
}

// ─── ResultsTool ────────────────────────────────────────────────────────────

// ResultsTool handles assessment_results.
type ResultsTool struct {
	engine Engine
}

// NewResultsTool creates a ResultsTool.
func NewResultsTool(e Engine) *ResultsTool { return &ResultsTool{engine: e} }

// Definition returns the MCP tool definition for assessment_results.
func (t *ResultsTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolResults,
		mcp.WithDescription("Return the final profile of a completed assessment."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}

// Handle processes the assessment_results tool call.
func (t *ResultsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := t.engine.Results(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(p)
}

// ─── AbandonTool ────────────────────────────────────────────────────────────

// AbandonTool handles assessment_abandon.
type AbandonTool struct {
	engine Engine
}

// NewAbandonTool creates an AbandonTool.
func NewAbandonTool(e Engine) *AbandonTool { return &AbandonTool{engine: e} }

// Definition returns the MCP tool definition for assessment_abandon.
func (t *AbandonTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolAbandon,
		mcp.WithDescription("Abandon an active assessment. No profile is produced."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	)
}

// Handle processes the assessment_abandon tool call.
func (t *AbandonTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.engine.Abandon(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s abandoned.", id)), nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

// errorCodes maps engine sentinels to the codes reported to clients.
var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrSessionNotFound, "session_not_found"},
	{engine.ErrSessionNotActive, "session_not_active"},
	{engine.ErrScenarioMismatch, "scenario_mismatch"},
	{engine.ErrAssessmentNotComplete, "assessment_not_complete"},
	{engine.ErrNoScenarioAvailable, "no_scenario_available"},
	{engine.ErrProviderTimeout, "provider_timeout"},
	{engine.ErrUnknownOption, "unknown_option"},
}

// ErrorCode returns the client-facing code for err.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

func toolError(err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", ErrorCode(err), err)
	if engine.Retryable(err) {
		msg += " (retryable)"
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	r, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return r, nil
}

// stringMap converts a JSON object argument to map[string]string.
func stringMap(v any) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("'business_context' must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("'business_context.%s' must be a string", k)
		}
		out[k] = s
	}
	return out, nil
}
