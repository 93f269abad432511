package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceConfig_Argv(t *testing.T) {
	t.Run("explicit args", func(t *testing.T) {
		argv, err := ServiceConfig{Command: "npx", Args: []string{"-y", "server"}}.Argv()
		require.NoError(t, err)
		assert.Equal(t, []string{"npx", "-y", "server"}, argv)
	})

	t.Run("command line is split with quoting", func(t *testing.T) {
		argv, err := ServiceConfig{Command: `node "my server.js" --root .`}.Argv()
		require.NoError(t, err)
		assert.Equal(t, []string{"node", "my server.js", "--root", "."}, argv)
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := ServiceConfig{Command: `node "broken`}.Argv()
		require.Error(t, err)
	})
}

func TestServiceConfig_Spec(t *testing.T) {
	cfg := ServiceConfig{Command: "srv", Env: map[string]string{"A": "1"}}

	spec, err := cfg.Spec("files")
	require.NoError(t, err)
	assert.Equal(t, "files", spec.Name)
	assert.Equal(t, []string{"srv"}, spec.Argv)
	assert.Equal(t, "1", spec.Env["A"])

	spec.Env["A"] = "changed"
	assert.Equal(t, "1", cfg.Env["A"], "spec env must not alias config env")

	_, err = ServiceConfig{}.Spec("empty")
	require.Error(t, err)
}

func TestDefaultServices(t *testing.T) {
	services := DefaultServices()
	require.Contains(t, services, "filesystem")
	require.Contains(t, services, "git")
	assert.Equal(t, "false", services["git"].Env["GIT_SIGN_COMMITS"])
	assert.Equal(t, "info", services["filesystem"].Env["MCP_LOG_LEVEL"])
}
