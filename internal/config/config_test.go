package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/toolagent-go/internal/mcp"
)

const sampleConfig = `
model: haiku
system_prompt: You are terse.
max_tool_turns: 10
parallelism: 4
requests_per_minute: 30
handshake: false
permission_mode: plan
permissions:
  allow: [read_file]
  deny: ["mcp_git_*"]
timeouts:
  discover: 5s
  call: 2m
services:
  filesystem:
    command: npx -y @modelcontextprotocol/server-filesystem ${TOOLAGENT_TEST_ROOT}
    env:
      MCP_LOG_LEVEL: info
  git:
    command: git-mcp
    args: [--repo, .]
`

func TestLoad(t *testing.T) {
	t.Setenv("TOOLAGENT_TEST_ROOT", "/srv/data")

	path := filepath.Join(t.TempDir(), "toolagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "haiku", f.Model)
	assert.Equal(t, 5*time.Second, f.Timeouts.Discover)
	assert.Equal(t, 2*time.Minute, f.Timeouts.Call)
	require.Contains(t, f.Services, "filesystem")
	assert.Equal(t, "npx -y @modelcontextprotocol/server-filesystem /srv/data", f.Services["filesystem"].Command)
	assert.Equal(t, []string{"--repo", "."}, f.Services["git"].Args)

	argv, err := f.Services["filesystem"].Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"npx", "-y", "@modelcontextprotocol/server-filesystem", "/srv/data"}, argv)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Parse([]byte("services:\n  broken:\n    env: {A: b}\n"))
	require.ErrorContains(t, err, "service broken has no command")

	_, err = Parse([]byte("model: [unterminated"))
	require.Error(t, err)

	_, err = Parse([]byte("permission_mode: yolo\n"))
	require.ErrorContains(t, err, "unknown permission mode")

	_, err = Parse([]byte("permissions:\n  deny: [\"mcp_[\"]\n"))
	require.ErrorContains(t, err, "invalid tool pattern")
}

func TestFile_Apply(t *testing.T) {
	f, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	opts := Default()
	opts.Services = map[string]mcp.ServiceConfig{"extra": {Command: "extra-mcp"}}

	f.Apply(opts)

	assert.Equal(t, "haiku", opts.Model)
	assert.Equal(t, "You are terse.", opts.SystemPrompt)
	assert.Equal(t, 10, opts.MaxToolTurns)
	assert.Equal(t, 4, opts.Parallelism)
	assert.Equal(t, 30, opts.RequestsPerMinute)
	assert.False(t, opts.Handshake)
	assert.Equal(t, 5*time.Second, opts.DiscoverTimeout)
	assert.Equal(t, 2*time.Minute, opts.CallTimeout)
	assert.Len(t, opts.Services, 3)
	assert.Equal(t, "plan", opts.PermissionMode)
	assert.Equal(t, []string{"read_file"}, opts.AllowedTools)
	assert.Equal(t, []string{"mcp_git_*"}, opts.DisallowedTools)
}

func TestFile_ApplyKeepsUnsetValues(t *testing.T) {
	opts := Default()
	opts.Model = "opus"

	(&File{}).Apply(opts)

	assert.Equal(t, "opus", opts.Model)
	assert.True(t, opts.Handshake)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAPIKey: "sk-test",
		EnvModel:  "sonnet",
	}

	opts := Default()
	opts.Model = "haiku"

	ApplyEnv(opts, func(k string) string { return env[k] })

	assert.Equal(t, "sk-test", opts.APIKey)
	assert.Equal(t, "sonnet", opts.Model)
}

func TestFindFile(t *testing.T) {
	_, err := FindFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	found, err := FindFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
