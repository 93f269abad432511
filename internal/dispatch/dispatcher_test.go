package dispatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/message"
	"github.com/wagiedev/toolagent-go/internal/permission"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoTool(name string) Descriptor {
	return Descriptor{
		Name:        name,
		Description: "Echo the text argument",
		InputSchema: SimpleSchema(map[string]string{"text": "string"}),
		Invoker: LocalFunc(func(_ context.Context, input map[string]any) (string, error) {
			return fmt.Sprint(input["text"]), nil
		}),
	}
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	reply string
	err   error
}

func (f *fakeRemote) CallTool(_ context.Context, serviceID, operation string, args map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fmt.Sprintf("%s/%s %v", serviceID, operation, args))

	return f.reply, f.err
}

func TestDispatcher_Register(t *testing.T) {
	t.Run("duplicate name", func(t *testing.T) {
		d := New(nopLogger(), nil)
		require.NoError(t, d.Register(echoTool("echo")))

		err := d.Register(echoTool("echo"))
		require.Error(t, err)

		dup, ok := stderrors.AsType[*errors.DuplicateNameError](err)
		require.True(t, ok)
		assert.Equal(t, "echo", dup.Name)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("rejects incomplete descriptors", func(t *testing.T) {
		d := New(nopLogger(), nil)

		require.Error(t, d.Register(Descriptor{Invoker: LocalFunc(nil)}))
		require.Error(t, d.Register(Descriptor{Name: "no_invoker"}))
		require.Error(t, d.Register(Descriptor{Name: "nil_func", Invoker: LocalFunc(nil)}))
		assert.Equal(t, 0, d.Len())
	})
}

func TestDispatcher_Resolve(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(echoTool("echo")))

	desc, err := d.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", desc.Name)

	_, err = d.Resolve("missing")

	notFound, ok := stderrors.AsType[*errors.ToolNotFoundError](err)
	require.True(t, ok)
	assert.Equal(t, "missing", notFound.Name)
}

func TestDispatcher_ExecuteNotFound(t *testing.T) {
	d := New(nopLogger(), nil)

	res := d.Execute(context.Background(), "nonexistent_tool", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "tool not found", res.Content)
}

func TestDispatcher_ExecuteLocal(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(echoTool("echo")))

	res := d.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	assert.False(t, res.IsError)
	assert.Equal(t, "hi", res.Content)
}

func TestDispatcher_Validation(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(echoTool("echo")))

	tests := []struct {
		name        string
		input       map[string]any
		wantError   bool
		wantContent string
	}{
		{
			name:        "missing required argument",
			input:       map[string]any{},
			wantError:   true,
			wantContent: "missing required argument(s) text",
		},
		{
			name:        "unknown argument is only a warning",
			input:       map[string]any{"text": "ok", "extra": true},
			wantContent: "ok",
		},
		{
			name:        "wrong type",
			input:       map[string]any{"text": 42},
			wantError:   true,
			wantContent: "invalid input for echo",
		},
		{
			name:        "nil input",
			input:       nil,
			wantError:   true,
			wantContent: "missing required argument(s) text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Execute(context.Background(), "echo", tt.input)
			assert.Equal(t, tt.wantError, res.IsError)
			assert.Contains(t, res.Content, tt.wantContent)
		})
	}
}

func TestDispatcher_IntegerArgumentsFromGo(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(Descriptor{
		Name:        "count",
		InputSchema: SimpleSchema(map[string]string{"n": "int"}),
		Invoker: LocalFunc(func(_ context.Context, input map[string]any) (string, error) {
			return fmt.Sprint(input["n"]), nil
		}),
	}))

	res := d.Execute(context.Background(), "count", map[string]any{"n": 3})
	assert.False(t, res.IsError, res.Content)
	assert.Equal(t, "3", res.Content)
}

func TestDispatcher_ToolFailures(t *testing.T) {
	d := New(nopLogger(), nil)

	require.NoError(t, d.Register(Descriptor{
		Name: "failing",
		Invoker: LocalFunc(func(context.Context, map[string]any) (string, error) {
			return "", stderrors.New("file not found: notes.txt")
		}),
	}))
	require.NoError(t, d.Register(Descriptor{
		Name: "panicking",
		Invoker: LocalFunc(func(context.Context, map[string]any) (string, error) {
			panic("boom")
		}),
	}))

	res := d.Execute(context.Background(), "failing", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "file not found: notes.txt", res.Content)

	res = d.Execute(context.Background(), "panicking", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "panic: boom")
}

func TestDispatcher_ExecuteRemote(t *testing.T) {
	remote := &fakeRemote{reply: "remote ok"}
	d := New(nopLogger(), remote)

	require.NoError(t, d.Register(Descriptor{
		Name:    "mcp_files_read",
		Invoker: RemoteOp{ServiceID: "files", RemoteName: "read"},
	}))

	res := d.Execute(context.Background(), "mcp_files_read", map[string]any{"path": "a"})
	assert.False(t, res.IsError)
	assert.Equal(t, "remote ok", res.Content)
	assert.Equal(t, []string{"files/read map[path:a]"}, remote.calls)

	remote.err = &errors.ToolExecutionError{Tool: "read", Err: stderrors.New("denied")}
	res = d.Execute(context.Background(), "mcp_files_read", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "denied", res.Content)
}

func TestDispatcher_RemoteWithoutCaller(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(Descriptor{Name: "r", Invoker: RemoteOp{ServiceID: "s", RemoteName: "op"}}))

	res := d.Execute(context.Background(), "r", nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "no remote caller")
}

func TestDispatcher_Handle(t *testing.T) {
	d := New(nopLogger(), nil)
	require.NoError(t, d.Register(echoTool("echo")))

	result := d.Handle(context.Background(), &message.ToolUseBlock{
		ID:    "toolu_1",
		Name:  "echo",
		Input: map[string]any{"text": "x"},
	})

	assert.Equal(t, &message.ToolResultBlock{ToolUseID: "toolu_1", Content: "x"}, result)
}

func TestDispatcher_SpecsInRegistrationOrder(t *testing.T) {
	d := New(nopLogger(), &fakeRemote{})

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, d.Register(echoTool(name)))
	}

	require.NoError(t, d.Register(Descriptor{Name: "remote", Invoker: RemoteOp{ServiceID: "s", RemoteName: "op"}}))

	specs := d.Specs()
	names := make([]string, 0, len(specs))

	for _, s := range specs {
		names = append(names, s.Name)
		require.NotNil(t, s.InputSchema)
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid", "remote"}, names)
	assert.Equal(t, "object", specs[3].InputSchema.Type)
	assert.Equal(t, names, d.Names())
}

func TestSimpleSchema(t *testing.T) {
	schema := SimpleSchema(map[string]string{"b": "bool", "a": "[]string", "n": "float64"})

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"a", "b", "n"}, schema.Required)
	assert.Equal(t, "array", schema.Properties["a"].Type)
	assert.Equal(t, "string", schema.Properties["a"].Items.Type)
	assert.Equal(t, "boolean", schema.Properties["b"].Type)
	assert.Equal(t, "number", schema.Properties["n"].Type)
}

func TestDispatcher_Permission(t *testing.T) {
	gate, err := permission.NewGate(permission.ModeDefault,
		permission.Rules{Deny: []string{"mcp_*"}},
		func(_ context.Context, _ string, input map[string]any) (permission.Result, error) {
			return &permission.ResultAllow{UpdatedInput: map[string]any{"text": "rewritten"}}, nil
		},
	)
	require.NoError(t, err)

	remote := &fakeRemote{reply: "remote"}
	d := New(nopLogger(), remote, WithPermission(gate))
	require.NoError(t, d.Register(echoTool("echo")))
	require.NoError(t, d.Register(Descriptor{
		Name:    "mcp_git_status",
		Invoker: RemoteOp{ServiceID: "git", RemoteName: "status"},
	}))

	t.Run("denied tool never runs", func(t *testing.T) {
		res := d.Execute(context.Background(), "mcp_git_status", nil)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "permission denied for mcp_git_status")
		assert.Empty(t, remote.calls)
	})

	t.Run("approved input replaces original", func(t *testing.T) {
		res := d.Execute(context.Background(), "echo", map[string]any{"text": "original"})
		assert.False(t, res.IsError)
		assert.Equal(t, "rewritten", res.Content)
	})

	t.Run("validation runs before permission", func(t *testing.T) {
		res := d.Execute(context.Background(), "echo", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content, "missing required argument(s) text")
	})
}

type checkerFunc func(ctx context.Context, tool string, input map[string]any) (map[string]any, error)

func (f checkerFunc) Check(ctx context.Context, tool string, input map[string]any) (map[string]any, error) {
	return f(ctx, tool, input)
}

type panickingRemote struct{}

func (panickingRemote) CallTool(context.Context, string, string, map[string]any) (string, error) {
	panic("remote caller bug")
}

func TestDispatcher_PanicsBecomeErrorResults(t *testing.T) {
	t.Run("permission check", func(t *testing.T) {
		checker := checkerFunc(func(context.Context, string, map[string]any) (map[string]any, error) {
			panic("callback bug")
		})

		d := New(nopLogger(), nil, WithPermission(checker))
		require.NoError(t, d.Register(echoTool("echo")))

		var res Result

		require.NotPanics(t, func() {
			res = d.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
		})
		assert.True(t, res.IsError)
		assert.Equal(t, "panic: callback bug", res.Content)
	})

	t.Run("remote caller", func(t *testing.T) {
		d := New(nopLogger(), panickingRemote{})
		require.NoError(t, d.Register(Descriptor{
			Name:    "mcp_svc_op",
			Invoker: RemoteOp{ServiceID: "svc", RemoteName: "op"},
		}))

		var res *message.ToolResultBlock

		require.NotPanics(t, func() {
			res = d.Handle(context.Background(), &message.ToolUseBlock{ID: "toolu_1", Name: "mcp_svc_op"})
		})
		assert.Equal(t, "toolu_1", res.ToolUseID)
		assert.True(t, res.IsError)
		assert.Equal(t, "panic: remote caller bug", res.Content)
	})
}
