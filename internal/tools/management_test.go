package tools

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/registry"
)

type fakeCatalog struct {
	tools     map[string][]dispatch.Descriptor
	failures  map[string]error
	refreshed []string
}

func (f *fakeCatalog) Services() []string {
	return []string{"filesystem", "git"}
}

func (f *fakeCatalog) Discover(_ context.Context, id string) ([]dispatch.Descriptor, error) {
	return f.tools[id], nil
}

func (f *fakeCatalog) Refresh(ctx context.Context, id string) ([]dispatch.Descriptor, error) {
	f.refreshed = append(f.refreshed, id)

	return f.Discover(ctx, id)
}

func (f *fakeCatalog) Entry(id string) (registry.Entry, bool) {
	return registry.Entry{Tools: f.tools[id], Err: f.failures[id]}, true
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		tools: map[string][]dispatch.Descriptor{
			"filesystem": {
				{
					Name:        "read_text",
					Description: "Read a text file",
					InputSchema: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"path":     {Type: "string", Description: "File to read"},
							"encoding": {Type: "string"},
						},
						Required: []string{"path"},
					},
				},
				{Name: "list_allowed"},
			},
			"git": {},
		},
		failures: map[string]error{"git": stderrors.New("service git unavailable")},
	}
}

func TestManagement_Refresh(t *testing.T) {
	catalog := newCatalog()
	d := newDispatcher(t, Management(catalog)...)

	res := d.Execute(context.Background(), "mcp_refresh_tools", nil)
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, []string{"filesystem", "git"}, catalog.refreshed)
	assert.Equal(t,
		"filesystem tools discovered: 2\n"+
			"  - read_text: Read a text file\n"+
			"  - list_allowed: No description\n"+
			"git tools discovery failed: service git unavailable",
		res.Content)
}

func TestManagement_ListOperations(t *testing.T) {
	d := newDispatcher(t, Management(newCatalog())...)

	t.Run("single service", func(t *testing.T) {
		res := d.Execute(context.Background(), "mcp_list_operations", map[string]any{"server_type": "Filesystem"})
		require.False(t, res.IsError, res.Content)
		assert.Equal(t,
			"filesystem operations (2):\n"+
				"  - read_text\n"+
				"    Parameters: encoding, path\n"+
				"  - list_allowed",
			res.Content)
	})

	t.Run("all services by default", func(t *testing.T) {
		res := d.Execute(context.Background(), "mcp_list_operations", map[string]any{})
		require.False(t, res.IsError, res.Content)
		assert.Contains(t, res.Content, "filesystem operations (2):")
		assert.Contains(t, res.Content, "git operations discovery failed")
	})

	t.Run("unknown service", func(t *testing.T) {
		res := d.Execute(context.Background(), "mcp_list_operations", map[string]any{"server_type": "svn"})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "unsupported server type: svn")
	})
}

func TestManagement_OperationInfo(t *testing.T) {
	d := newDispatcher(t, Management(newCatalog())...)

	res := d.Execute(context.Background(), "mcp_operation_info", map[string]any{
		"server_type": "filesystem",
		"operation":   "read_text",
	})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t,
		"MCP filesystem operation: read_text\n"+
			"==================================================\n"+
			"Description: Read a text file\n"+
			"Input schema:\n"+
			"  - encoding: string\n"+
			"    Required: No\n"+
			"  - path: string\n"+
			"    Description: File to read\n"+
			"    Required: Yes",
		res.Content)

	res = d.Execute(context.Background(), "mcp_operation_info", map[string]any{
		"server_type": "filesystem",
		"operation":   "write",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "available operations: read_text, list_allowed")

	res = d.Execute(context.Background(), "mcp_operation_info", map[string]any{"server_type": "all", "operation": "x"})
	assert.True(t, res.IsError)

	res = d.Execute(context.Background(), "mcp_operation_info", map[string]any{"server_type": "git"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "missing required argument(s) operation")
}
