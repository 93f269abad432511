package toolagent

import (
	"context"
	"io"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/engine"
	"github.com/wagiedev/toolagent-go/internal/mcp"
	"github.com/wagiedev/toolagent-go/internal/message"
	"github.com/wagiedev/toolagent-go/internal/permission"
)

// Re-export conversation types.
type (
	// Message is one conversation entry.
	Message = message.Message

	// Segment is one content block of a message.
	Segment = message.Segment

	// TextBlock is plain text content.
	TextBlock = message.TextBlock

	// ToolUseBlock is a tool invocation requested by the model.
	ToolUseBlock = message.ToolUseBlock

	// ToolResultBlock is the outcome of a tool use.
	ToolResultBlock = message.ToolResultBlock

	// ToolSpec is the declaration of a tool sent to the model.
	ToolSpec = message.ToolSpec

	// Schema is a JSON Schema object for tool input validation.
	Schema = jsonschema.Schema
)

// Re-export engine extension points.
type (
	// Endpoint produces assistant turns. The default calls the Messages API.
	Endpoint = engine.Endpoint

	// Request is one call to an Endpoint.
	Request = engine.Request

	// Response is one assistant turn returned by an Endpoint.
	Response = engine.Response

	// Printer shows conversation output.
	Printer = engine.Printer

	// InputReader yields user input lines.
	InputReader = engine.InputReader

	// State is the session state.
	State = engine.State
)

// Session states.
const (
	StateAwaitingUser   = engine.StateAwaitingUser
	StateProcessingTurn = engine.StateProcessingTurn
)

// Re-export permission types.
type (
	// ToolPermissionCallback approves or denies a tool use.
	ToolPermissionCallback = permission.Callback

	// PermissionResult is a permission decision.
	PermissionResult = permission.Result

	// PermissionResultAllow lets a tool use run, optionally with new input.
	PermissionResultAllow = permission.ResultAllow

	// PermissionResultDeny refuses a tool use.
	PermissionResultDeny = permission.ResultDeny
)

// ServiceConfig configures a stdio MCP service.
type ServiceConfig = mcp.ServiceConfig

// Tool declares a tool for WithLocalTool.
type Tool = dispatch.Descriptor

// ToolFunc implements a local tool. The input has already been validated
// against the tool's schema. A returned error is reported to the model as a
// failed tool result.
type ToolFunc = dispatch.LocalFunc

// NewTool creates a local tool.
//
// The inputSchema should be a *jsonschema.Schema. Use SimpleSchema for
// convenience or build a full Schema for more control. A nil schema accepts
// any object.
func NewTool(name, description string, inputSchema *jsonschema.Schema, fn ToolFunc) Tool {
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		Invoker:     fn,
	}
}

// SimpleSchema creates an object schema from a simple type map. Every
// property is required.
//
// Input format: {"a": "float64", "b": "string"}
//
// Type mappings:
//   - "string"           → {"type": "string"}
//   - "int", "int64"     → {"type": "integer"}
//   - "float64", "float" → {"type": "number"}
//   - "bool"             → {"type": "boolean"}
//   - "[]string"         → {"type": "array", "items": {"type": "string"}}
//   - "any", "object"    → {"type": "object"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	return dispatch.SimpleSchema(props)
}

// NewLineReader returns an InputReader over in that writes prompt to out
// before each line.
func NewLineReader(in io.Reader, out io.Writer, prompt string) InputReader {
	return engine.NewLineReader(in, out, prompt)
}

// EndpointFunc adapts a function to the Endpoint interface.
type EndpointFunc func(ctx context.Context, req *Request) (*Response, error)

// Complete implements Endpoint.
func (f EndpointFunc) Complete(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
