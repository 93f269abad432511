package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndpointError(t *testing.T) {
	root := errors.New("connection reset")

	t.Run("without status", func(t *testing.T) {
		err := &EndpointError{Err: root}

		require.Equal(t, "model endpoint failed: connection reset", err.Error())
		require.ErrorIs(t, err, root)
		require.True(t, err.IsAgentError())
	})

	t.Run("with status", func(t *testing.T) {
		err := &EndpointError{StatusCode: 529, Err: root}

		require.Equal(t, "model endpoint failed (status 529): connection reset", err.Error())
	})
}

func TestToolNotFoundError(t *testing.T) {
	err := &ToolNotFoundError{Name: "frobnicate"}

	require.Equal(t, "tool not found: frobnicate", err.Error())
	require.True(t, err.IsAgentError())
}

func TestToolValidationError(t *testing.T) {
	t.Run("missing arguments", func(t *testing.T) {
		err := &ToolValidationError{Tool: "read_file", Missing: []string{"path", "mode"}}

		require.Equal(t, "invalid input for read_file: missing required argument(s) path, mode", err.Error())
	})

	t.Run("schema failure", func(t *testing.T) {
		root := errors.New("type mismatch")
		err := &ToolValidationError{Tool: "read_file", Err: root}

		require.Equal(t, "invalid input for read_file: type mismatch", err.Error())
		require.ErrorIs(t, err, root)
	})
}

func TestToolExecutionError(t *testing.T) {
	root := errors.New("permission denied")
	err := &ToolExecutionError{Tool: "delete_file", Err: root}

	require.Equal(t, "delete_file failed: permission denied", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsAgentError())
}

func TestDuplicateNameError(t *testing.T) {
	err := &DuplicateNameError{Name: "list_directory"}

	require.Equal(t, `tool "list_directory" already registered`, err.Error())
}

func TestRPCProtocolError(t *testing.T) {
	root := errors.New("unexpected token")
	err := &RPCProtocolError{Reason: "response id mismatch", RawData: `{"id":7}`, Err: root}

	require.Equal(t, "rpc protocol error: response id mismatch: unexpected token", err.Error())
	require.ErrorIs(t, err, root)

	bare := &RPCProtocolError{Reason: "missing id"}
	require.Equal(t, "rpc protocol error: missing id", bare.Error())
	require.NoError(t, bare.Unwrap())
}

func TestRPCTimeoutError(t *testing.T) {
	err := &RPCTimeoutError{Method: "tools/call", Timeout: "1s"}

	require.Equal(t, "tools/call timed out after 1s", err.Error())
	require.ErrorIs(t, err, ErrTimeout)

	timeoutErr, ok := errors.AsType[*RPCTimeoutError](error(err))
	require.True(t, ok)
	require.Equal(t, "tools/call", timeoutErr.Method)
}

func TestServiceUnavailableError(t *testing.T) {
	root := errors.New("executable file not found in $PATH")
	err := &ServiceUnavailableError{Service: "git", Command: []string{"npx", "git-mcp"}, Err: root}

	require.Equal(t, "service git unavailable (npx): executable file not found in $PATH", err.Error())
	require.ErrorIs(t, err, root)

	noCmd := &ServiceUnavailableError{Service: "git", Err: ErrUnknownService}
	require.Equal(t, "service git unavailable: unknown service", noCmd.Error())
	require.ErrorIs(t, noCmd, ErrUnknownService)
}

func TestPermissionDeniedError(t *testing.T) {
	err := &PermissionDeniedError{Tool: "read_file", Reason: "matches disallowed pattern read_*"}

	require.Equal(t, "permission denied for read_file: matches disallowed pattern read_*", err.Error())
	require.True(t, err.IsAgentError())
}
