package permission

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolagent-go/internal/errors"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "default", "plan", "bypassPermissions"} {
		_, err := ParseMode(s)
		require.NoError(t, err, s)
	}

	_, err := ParseMode("acceptEdits")
	require.Error(t, err)
}

func TestNewGate_InvalidPattern(t *testing.T) {
	_, err := NewGate(ModeDefault, Rules{Deny: []string{"mcp_["}}, nil)
	require.ErrorContains(t, err, "invalid tool pattern")
}

func TestGate_Check(t *testing.T) {
	input := map[string]any{"path": "."}

	callback := func(_ context.Context, name string, in map[string]any) (Result, error) {
		switch name {
		case "read_file":
			return &ResultAllow{UpdatedInput: map[string]any{"path": "safe.txt"}}, nil
		case "mcp_git_git_commit":
			return &ResultDeny{Message: "no commits"}, nil
		case "broken":
			return nil, stderrors.New("callback failed")
		default:
			return &ResultAllow{}, nil
		}
	}

	tests := []struct {
		name     string
		mode     Mode
		rules    Rules
		cb       Callback
		tool     string
		want     map[string]any
		denyText string
	}{
		{name: "default allows without rules", mode: ModeDefault, tool: "list_directory", want: input},
		{name: "bypass ignores deny rules", mode: ModeBypassPermissions, rules: Rules{Deny: []string{"*"}}, tool: "read_file", want: input},
		{name: "plan denies everything", mode: ModePlan, tool: "list_directory", denyText: "plan mode"},
		{name: "deny pattern", mode: ModeDefault, rules: Rules{Deny: []string{"mcp_git_*"}}, tool: "mcp_git_git_status", denyText: "mcp_git_*"},
		{name: "deny beats allow", mode: ModeDefault, rules: Rules{Allow: []string{"*"}, Deny: []string{"read_file"}}, tool: "read_file", denyText: "disallowed"},
		{name: "allow skips callback", mode: ModeDefault, rules: Rules{Allow: []string{"mcp_git_*"}}, cb: callback, tool: "mcp_git_git_commit", want: input},
		{name: "callback rewrites input", mode: ModeDefault, cb: callback, tool: "read_file", want: map[string]any{"path": "safe.txt"}},
		{name: "callback allows unchanged", mode: ModeDefault, cb: callback, tool: "list_directory", want: input},
		{name: "callback denies", mode: ModeDefault, cb: callback, tool: "mcp_git_git_commit", denyText: "no commits"},
		{name: "callback error denies", mode: ModeDefault, cb: callback, tool: "broken", denyText: "callback failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGate(tt.mode, tt.rules, tt.cb)
			require.NoError(t, err)

			got, err := g.Check(context.Background(), tt.tool, input)
			if tt.denyText != "" {
				denied, ok := stderrors.AsType[*errors.PermissionDeniedError](err)
				require.True(t, ok, "expected PermissionDeniedError, got %v", err)
				assert.Equal(t, tt.tool, denied.Tool)
				assert.Contains(t, denied.Error(), tt.denyText)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
