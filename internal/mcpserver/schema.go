package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Input types for MCP tools
type ListProfilesInput struct{}

type RunCommandInput struct {
	Profile    string `json:"profile"`
	Command    string `json:"command"`
	SessionID  string `json:"session_id,omitempty"`
	TimeoutSec *int   `json:"timeout_sec,omitempty"`
}

type ApproveAndRunInput struct {
	ApprovalID string `json:"approval_id"`
	Decision   string `json:"decision"`
	TimeoutSec *int   `json:"timeout_sec,omitempty"`
}

type ClearSessionInput struct {
	SessionID string `json:"session_id,omitempty"`
}

// JSON Schema definitions for MCP tools
var ListProfilesInputSchema = &jsonschema.Schema{
	Type:                 "object",
	Properties:           map[string]*jsonschema.Schema{},
	AdditionalProperties: boolSchema(false),
}

// timeoutSchema returns a fresh timeout_sec property. Each tool needs its
// own value: schemas reachable from a root must form a tree.
func timeoutSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "Timeout in seconds. Defaults to the profile's default_timeout_sec and is clamped to its max_timeout_sec.",
	}
}

var RunCommandInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"profile": {
			Type:        "string",
			Description: "Profile name from ssh_list_profiles",
		},
		"command": {
			Type:        "string",
			Description: "Single-line shell command to run on the remote host",
		},
		"session_id": {
			Type:        "string",
			Description: "Session whose trusted prefixes apply (default: \"default\")",
		},
		"timeout_sec": timeoutSchema(),
	},
	Required:             []string{"profile", "command"},
	AdditionalProperties: boolSchema(false),
}

var ApproveAndRunInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"approval_id": {
			Type:        "string",
			Description: "approval_id returned by ssh_run_command",
		},
		"decision": {
			Type:        "string",
			Description: "allow_once runs the command once; allow_prefix also trusts the suggested prefix for the session",
			Enum:        []interface{}{"allow_once", "allow_prefix"},
		},
		"timeout_sec": timeoutSchema(),
	},
	Required:             []string{"approval_id", "decision"},
	AdditionalProperties: boolSchema(false),
}

var ClearSessionInputSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"session_id": {
			Type:        "string",
			Description: "Session to clear (default: \"default\")",
		},
	},
	AdditionalProperties: boolSchema(false),
}

func boolSchema(b bool) *jsonschema.Schema {
	if b {
		return &jsonschema.Schema{}
	}
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
