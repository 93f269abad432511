package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/engine"
	"github.com/wagiedev/toolagent-go/internal/mcp"
	"github.com/wagiedev/toolagent-go/internal/permission"
)

// Options configures the agent.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// APIKey authenticates against the Messages API. Unused when Endpoint is set.
	APIKey string

	// BaseURL overrides the Messages API base URL.
	BaseURL string

	// Model is a model id or alias ("sonnet", "haiku", "opus").
	Model string

	// SystemPrompt is sent with every request. Empty sends none.
	SystemPrompt string

	// MaxOutputTokens caps each assistant turn. Zero uses the engine default.
	MaxOutputTokens int

	// MaxToolTurns caps endpoint calls made without new user input.
	// Zero uses the engine default.
	MaxToolTurns int

	// Parallelism is how many tool uses of one turn run at once.
	Parallelism int

	// RequestsPerMinute limits Messages API calls. Zero disables limiting.
	RequestsPerMinute int

	// ConfigFile is a YAML file applied before explicit options.
	ConfigFile string

	// Services are the MCP services whose operations become tools, keyed by
	// service id.
	Services map[string]mcp.ServiceConfig

	// DefaultServices adds the filesystem and git services for ids not
	// already configured.
	DefaultServices bool

	// Handshake sends the MCP initialize handshake before every request.
	Handshake bool

	// DiscoverTimeout bounds a tools/list call. Zero uses 30s.
	DiscoverTimeout time.Duration

	// CallTimeout bounds a tools/call call. Zero uses 60s.
	CallTimeout time.Duration

	// WorkDir is the root for the built-in filesystem tools.
	// Empty means the process working directory.
	WorkDir string

	// DisableBuiltinTools omits list_directory and read_file.
	DisableBuiltinTools bool

	// PermissionMode is "default", "plan" or "bypassPermissions".
	PermissionMode string

	// AllowedTools are tool name patterns that run without consulting
	// CanUseTool.
	AllowedTools []string

	// DisallowedTools are tool name patterns that never run.
	DisallowedTools []string

	// CanUseTool is called before each tool use not settled by
	// AllowedTools or DisallowedTools.
	// This field is not serialized.
	CanUseTool permission.Callback `json:"-"`

	// LocalTools are additional in-process tools.
	LocalTools []dispatch.Descriptor

	// Endpoint replaces the Messages API client, e.g. in tests.
	// This field is not serialized.
	Endpoint engine.Endpoint `json:"-"`

	// Printer receives conversation output. Nil discards it.
	Printer engine.Printer `json:"-"`
}

// Default returns options with the handshake enabled and no services.
func Default() *Options {
	return &Options{
		Handshake: true,
	}
}
