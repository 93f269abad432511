package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wagiedev/toolagent-go/internal/mcp"
	"github.com/wagiedev/toolagent-go/internal/permission"
)

// File is the YAML configuration file.
//
//	model: sonnet
//	max_tool_turns: 25
//	timeouts:
//	  discover: 30s
//	  call: 60s
//	permissions:
//	  deny: ["mcp_git_git_push"]
//	services:
//	  filesystem:
//	    command: npx -y @modelcontextprotocol/server-filesystem .
//	    env:
//	      MCP_LOG_LEVEL: info
type File struct {
	Model             string                       `yaml:"model"`
	BaseURL           string                       `yaml:"base_url"`
	SystemPrompt      string                       `yaml:"system_prompt"`
	MaxOutputTokens   int                          `yaml:"max_output_tokens"`
	MaxToolTurns      int                          `yaml:"max_tool_turns"`
	Parallelism       int                          `yaml:"parallelism"`
	RequestsPerMinute int                          `yaml:"requests_per_minute"`
	WorkDir           string                       `yaml:"work_dir"`
	Handshake         *bool                        `yaml:"handshake"`
	Timeouts          TimeoutsConfig               `yaml:"timeouts"`
	Services          map[string]mcp.ServiceConfig `yaml:"services"`
	PermissionMode    string                       `yaml:"permission_mode"`
	Permissions       permission.Rules             `yaml:"permissions"`
}

// TimeoutsConfig holds per-method RPC timeouts.
type TimeoutsConfig struct {
	Discover time.Duration `yaml:"discover"`
	Call     time.Duration `yaml:"call"`
}

// DefaultSearchPaths returns the config file search order:
// ./toolagent.yaml, then ~/.config/toolagent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"toolagent.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "toolagent", "config.yaml"))
	}

	return paths
}

// FindFile locates a config file. If explicit is non-empty, it must exist.
// Otherwise the first existing DefaultSearchPaths entry is returned, or ""
// when there is none; running without a file is allowed.
func FindFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}

		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Load reads a config file. ${VAR} references are expanded from the
// environment before parsing.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML config data.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for id, svc := range f.Services {
		if svc.Command == "" {
			return nil, fmt.Errorf("parse config: service %s has no command", id)
		}
	}

	if _, err := permission.ParseMode(f.PermissionMode); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := f.Permissions.Validate(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &f, nil
}

// Apply copies every value set in the file onto o.
func (f *File) Apply(o *Options) {
	if f.Model != "" {
		o.Model = f.Model
	}

	if f.BaseURL != "" {
		o.BaseURL = f.BaseURL
	}

	if f.SystemPrompt != "" {
		o.SystemPrompt = f.SystemPrompt
	}

	if f.MaxOutputTokens > 0 {
		o.MaxOutputTokens = f.MaxOutputTokens
	}

	if f.MaxToolTurns > 0 {
		o.MaxToolTurns = f.MaxToolTurns
	}

	if f.Parallelism > 0 {
		o.Parallelism = f.Parallelism
	}

	if f.RequestsPerMinute > 0 {
		o.RequestsPerMinute = f.RequestsPerMinute
	}

	if f.WorkDir != "" {
		o.WorkDir = f.WorkDir
	}

	if f.Handshake != nil {
		o.Handshake = *f.Handshake
	}

	if f.Timeouts.Discover > 0 {
		o.DiscoverTimeout = f.Timeouts.Discover
	}

	if f.Timeouts.Call > 0 {
		o.CallTimeout = f.Timeouts.Call
	}

	if f.PermissionMode != "" {
		o.PermissionMode = f.PermissionMode
	}

	o.AllowedTools = append(o.AllowedTools, f.Permissions.Allow...)
	o.DisallowedTools = append(o.DisallowedTools, f.Permissions.Deny...)

	if len(f.Services) > 0 {
		if o.Services == nil {
			o.Services = make(map[string]mcp.ServiceConfig, len(f.Services))
		}

		for id, svc := range f.Services {
			o.Services[id] = svc
		}
	}
}
