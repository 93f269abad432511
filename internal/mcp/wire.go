package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProtocolVersion is the MCP revision advertised during the handshake.
const ProtocolVersion = "2024-11-05"

// Method names used by the client.
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// InitializeParams returns the params for an initialize request.
func InitializeParams(clientName, clientVersion string) *mcp.InitializeParams {
	return &mcp.InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo: &mcp.Implementation{
			Name:    clientName,
			Version: clientVersion,
		},
		Capabilities: &mcp.ClientCapabilities{},
	}
}

// CallToolParams returns the params for a tools/call request.
func CallToolParams(name string, args map[string]any) (*mcp.CallToolParamsRaw, error) {
	if args == nil {
		args = map[string]any{}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments for %s: %w", name, err)
	}

	return &mcp.CallToolParamsRaw{Name: name, Arguments: raw}, nil
}

// RemoteTool is one entry of a tools/list result.
type RemoteTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema,omitempty"`
}

// DecodeToolList parses a tools/list result. Entries without a name are
// dropped.
func DecodeToolList(result json.RawMessage) ([]RemoteTool, error) {
	var payload struct {
		Tools []json.RawMessage `json:"tools"`
	}

	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode tools/list result: %w", err)
	}

	tools := make([]RemoteTool, 0, len(payload.Tools))

	for _, raw := range payload.Tools {
		var tool RemoteTool
		if err := json.Unmarshal(raw, &tool); err != nil {
			// A schema the schema package rejects should not hide the tool.
			var loose struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}

			if json.Unmarshal(raw, &loose) != nil {
				continue
			}

			tool = RemoteTool{Name: loose.Name, Description: loose.Description}
		}

		if tool.Name == "" {
			continue
		}

		tools = append(tools, tool)
	}

	return tools, nil
}

// CallOutcome is the decoded result of a tools/call request.
type CallOutcome struct {
	Text    string
	IsError bool
}

// DecodeCallResult turns a tools/call result into text.
//
// Well-formed results are decoded with the SDK's content types. Results with
// content items lacking a type are read loosely, and anything else (including
// a bare JSON string from a non-conforming server) is returned as text.
func DecodeCallResult(result json.RawMessage) CallOutcome {
	var str string
	if json.Unmarshal(result, &str) == nil {
		return CallOutcome{Text: str}
	}

	var typed mcp.CallToolResult
	if err := json.Unmarshal(result, &typed); err == nil && len(typed.Content) > 0 {
		return CallOutcome{Text: ContentText(typed.Content), IsError: typed.IsError}
	}

	var loose struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}

	if err := json.Unmarshal(result, &loose); err == nil && len(loose.Content) > 0 {
		parts := make([]string, 0, len(loose.Content))
		for _, c := range loose.Content {
			if c.Type == "" || c.Type == "text" {
				parts = append(parts, c.Text)
			} else {
				parts = append(parts, fmt.Sprintf("[%s]", c.Type))
			}
		}

		return CallOutcome{Text: strings.Join(parts, "\n"), IsError: loose.IsError}
	}

	return CallOutcome{Text: string(result)}
}

// ContentText joins content blocks into a single string. Non-text blocks are
// represented as inline markers.
func ContentText(content []mcp.Content) string {
	parts := make([]string, 0, len(content))

	for _, c := range content {
		switch v := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s, %d bytes]", v.MIMEType, len(v.Data)))
		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[audio %s, %d bytes]", v.MIMEType, len(v.Data)))
		case *mcp.ResourceLink:
			parts = append(parts, fmt.Sprintf("[resource %s]", v.URI))
		case *mcp.EmbeddedResource:
			if v.Resource != nil && v.Resource.Text != "" {
				parts = append(parts, v.Resource.Text)
			} else if v.Resource != nil {
				parts = append(parts, fmt.Sprintf("[resource %s]", v.Resource.URI))
			}
		}
	}

	return strings.Join(parts, "\n")
}
