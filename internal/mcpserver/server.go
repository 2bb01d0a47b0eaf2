// Package mcpserver exposes the gateway operations as MCP tools over stdio
// or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xdg/sshgate/internal/clog"
	"github.com/xdg/sshgate/internal/gateway"
)

// Tool names.
const (
	ToolListProfiles  = "ssh_list_profiles"
	ToolRunCommand    = "ssh_run_command"
	ToolApproveAndRun = "ssh_approve_and_run"
	ToolClearSession  = "ssh_clear_session_allowlist"
)

const instructions = "Run shell commands on remote hosts over SSH, subject to per-profile policy. " +
	"Workflow: 1) Use ssh_list_profiles to see available targets, 2) Use ssh_run_command to run a command, " +
	"3) If the result has approval_required, ask the user whether to allow the command once or allow its " +
	"suggested_prefix for the session, then call ssh_approve_and_run with their decision. Never approve on the user's behalf."

// Server wraps a gateway in an MCP server.
type Server struct {
	gw  *gateway.Gateway
	mcp *mcp.Server
}

// New creates a Server with every tool registered.
func New(gw *gateway.Gateway, version string) *Server {
	s := &Server{gw: gw}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "sshgate",
			Title:   "SSH Remote Runner",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: instructions,
		},
	)

	mcp.AddTool(
		s.mcp,
		&mcp.Tool{
			Name:        ToolListProfiles,
			Title:       "SSH: List Profiles",
			Description: "List configured SSH profiles with their description, host, and username.",
			InputSchema: ListProfilesInputSchema,
		},
		s.ListProfilesHandler,
	)

	mcp.AddTool(
		s.mcp,
		&mcp.Tool{
			Name:        ToolRunCommand,
			Title:       "SSH: Run Command",
			Description: "Run a command on a profile's host. Commands outside the profile's allowlist return approval_required with an approval_id instead of running.",
			InputSchema: RunCommandInputSchema,
		},
		s.RunCommandHandler,
	)

	mcp.AddTool(
		s.mcp,
		&mcp.Tool{
			Name:        ToolApproveAndRun,
			Title:       "SSH: Approve and Run",
			Description: "Apply the user's decision (allow_once or allow_prefix) to a pending approval and run its command. Each approval_id can be used once.",
			InputSchema: ApproveAndRunInputSchema,
		},
		s.ApproveAndRunHandler,
	)

	mcp.AddTool(
		s.mcp,
		&mcp.Tool{
			Name:        ToolClearSession,
			Title:       "SSH: Clear Session Allowlist",
			Description: "Forget every prefix trusted in a session via allow_prefix.",
			InputSchema: ClearSessionInputSchema,
		},
		s.ClearSessionHandler,
	)

	return s
}

// RunStdio serves MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	clog.Info("mcp: serving on stdio")
	return s.mcp.Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) ListProfilesHandler(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[ListProfilesInput]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(s.gw.ListProfiles())
}

func (s *Server) RunCommandHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[RunCommandInput]) (*mcp.CallToolResultFor[any], error) {
	req := params.Arguments
	res := s.gw.RunCommand(ctx, gateway.RunRequest{
		Profile:    req.Profile,
		Command:    req.Command,
		SessionID:  req.SessionID,
		TimeoutSec: req.TimeoutSec,
	})
	return jsonResult(res)
}

func (s *Server) ApproveAndRunHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ApproveAndRunInput]) (*mcp.CallToolResultFor[any], error) {
	req := params.Arguments
	res := s.gw.ApproveAndRun(ctx, gateway.ApproveRequest{
		ApprovalID: req.ApprovalID,
		Decision:   req.Decision,
		TimeoutSec: req.TimeoutSec,
	})
	return jsonResult(res)
}

func (s *Server) ClearSessionHandler(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ClearSessionInput]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(s.gw.ClearSession(params.Arguments.SessionID))
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: string(jsonData),
			},
		},
	}, nil
}
