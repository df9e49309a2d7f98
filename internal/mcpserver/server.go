package mcpserver

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `Persona runs adaptive entrepreneurial-personality assessments.
Flow: assessment_start -> assessment_next -> (assessment_respond)* until "completed" is true.
Present each scenario's situation, question and options to the user verbatim and submit their choice.
On scenario_mismatch call assessment_current and answer the scenario it returns.`

type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// New creates the MCP server with every assessment tool registered.
func New(e Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"persona",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, t := range []tool{
		NewStartTool(e),
		NewNextTool(e),
		NewRespondTool(e),
		NewCurrentTool(e),
		NewResultsTool(e),
		NewAbandonTool(e),
	} {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// Serve runs s over the given streams until ctx ends or input closes.
// Diagnostics go to errLog so they never mix with protocol output.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, errLog *log.Logger) error {
	stdio := server.NewStdioServer(s)
	if errLog != nil {
		stdio.SetErrorLogger(errLog)
	}
	return stdio.Listen(ctx, in, out)
}
