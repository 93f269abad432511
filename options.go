package toolagent

import (
	"log/slog"
	"time"

	"github.com/wagiedev/toolagent-go/internal/config"
	"github.com/wagiedev/toolagent-go/internal/mcp"
)

// Options holds the agent configuration assembled from functional options.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyAgentOptions applies functional options over the defaults.
func applyAgentOptions(opts []Option) *Options {
	options := config.Default()
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithAPIKey sets the Messages API key.
func WithAPIKey(key string) Option {
	return func(o *Options) {
		o.APIKey = key
	}
}

// WithBaseURL overrides the Messages API base URL.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// WithModel selects the model by id or alias (e.g., "sonnet", "claude-haiku-4-5").
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithMaxOutputTokens caps each assistant turn. Values above the model's
// limit are clamped.
func WithMaxOutputTokens(n int) Option {
	return func(o *Options) {
		o.MaxOutputTokens = n
	}
}

// WithMaxToolTurns limits how many times the model may be called in a row
// without new user input.
func WithMaxToolTurns(n int) Option {
	return func(o *Options) {
		o.MaxToolTurns = n
	}
}

// WithParallelism runs up to n tool uses of one turn concurrently.
// Results are always returned in request order.
func WithParallelism(n int) Option {
	return func(o *Options) {
		o.Parallelism = n
	}
}

// WithRequestsPerMinute limits Messages API calls.
func WithRequestsPerMinute(rpm int) Option {
	return func(o *Options) {
		o.RequestsPerMinute = rpm
	}
}

// WithConfigFile loads a YAML config file. Its values apply before the
// other options, so explicit options win.
func WithConfigFile(path string) Option {
	return func(o *Options) {
		o.ConfigFile = path
	}
}

// ===== Tools =====

// WithService adds an MCP service. Its operations are exposed as
// mcp_<id>_<operation>.
func WithService(id string, svc ServiceConfig) Option {
	return func(o *Options) {
		if o.Services == nil {
			o.Services = make(map[string]mcp.ServiceConfig)
		}

		o.Services[id] = svc
	}
}

// WithDefaultServices adds the filesystem and git services.
func WithDefaultServices() Option {
	return func(o *Options) {
		o.DefaultServices = true
	}
}

// WithHandshake controls whether the MCP initialize handshake precedes
// each service request. Enabled by default.
func WithHandshake(enabled bool) Option {
	return func(o *Options) {
		o.Handshake = enabled
	}
}

// WithServiceTimeouts overrides the discovery and call timeouts.
// Zero keeps the default.
func WithServiceTimeouts(discover, call time.Duration) Option {
	return func(o *Options) {
		o.DiscoverTimeout = discover
		o.CallTimeout = call
	}
}

// WithWorkDir sets the root directory of the built-in filesystem tools.
func WithWorkDir(dir string) Option {
	return func(o *Options) {
		o.WorkDir = dir
	}
}

// WithoutBuiltinTools omits list_directory and read_file.
func WithoutBuiltinTools() Option {
	return func(o *Options) {
		o.DisableBuiltinTools = true
	}
}

// WithLocalTool registers an in-process tool.
func WithLocalTool(tools ...Tool) Option {
	return func(o *Options) {
		o.LocalTools = append(o.LocalTools, tools...)
	}
}

// ===== Permissions =====

// WithPermissionMode controls how tool uses are approved.
// Valid values: "default", "plan", "bypassPermissions".
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// WithAllowedTools pre-approves tools by name pattern ("mcp_files_*").
func WithAllowedTools(patterns ...string) Option {
	return func(o *Options) {
		o.AllowedTools = append(o.AllowedTools, patterns...)
	}
}

// WithDisallowedTools blocks tools by name pattern. Blocked tool uses are
// reported to the model as failed.
func WithDisallowedTools(patterns ...string) Option {
	return func(o *Options) {
		o.DisallowedTools = append(o.DisallowedTools, patterns...)
	}
}

// WithCanUseTool sets a callback that approves, rewrites or denies each
// tool use not settled by the allowed and disallowed patterns.
func WithCanUseTool(callback ToolPermissionCallback) Option {
	return func(o *Options) {
		o.CanUseTool = callback
	}
}

// ===== Extension Points =====

// WithEndpoint replaces the Messages API client. No API key is needed.
func WithEndpoint(endpoint Endpoint) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
	}
}

// WithPrinter receives assistant text, tool use notices, and errors.
func WithPrinter(printer Printer) Option {
	return func(o *Options) {
		o.Printer = printer
	}
}
