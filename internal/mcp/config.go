package mcp

import (
	"fmt"
	"maps"

	"github.com/mattn/go-shellwords"

	"github.com/wagiedev/toolagent-go/internal/subprocess"
)

// ServiceConfig configures a stdio MCP service.
//
// Command may be a full command line ("npx -y @scope/server .") when Args is
// empty; it is split with shell quoting rules.
type ServiceConfig struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Dir     string            `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Argv returns the full argument vector for the service.
func (c ServiceConfig) Argv() ([]string, error) {
	if len(c.Args) > 0 {
		argv := make([]string, 0, len(c.Args)+1)
		argv = append(argv, c.Command)

		return append(argv, c.Args...), nil
	}

	parser := shellwords.NewParser()
	parser.ParseEnv = true

	argv, err := parser.Parse(c.Command)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", c.Command, err)
	}

	return argv, nil
}

// Spec converts the config into a launch spec for the named service.
func (c ServiceConfig) Spec(name string) (subprocess.Spec, error) {
	argv, err := c.Argv()
	if err != nil {
		return subprocess.Spec{}, err
	}

	if len(argv) == 0 {
		return subprocess.Spec{}, fmt.Errorf("service %s: empty command", name)
	}

	return subprocess.Spec{
		Name: name,
		Argv: argv,
		Env:  maps.Clone(c.Env),
		Dir:  c.Dir,
	}, nil
}

// DefaultServices returns the filesystem and git services used when no
// services are configured and defaults are requested.
func DefaultServices() map[string]ServiceConfig {
	return map[string]ServiceConfig{
		"filesystem": {
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "."},
			Env:     map[string]string{"MCP_LOG_LEVEL": "info"},
		},
		"git": {
			Command: "npx",
			Args:    []string{"-y", "@cyanheads/git-mcp-server"},
			Env: map[string]string{
				"MCP_LOG_LEVEL":    "info",
				"GIT_SIGN_COMMITS": "false",
			},
		},
	}
}
