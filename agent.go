package toolagent

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/wagiedev/toolagent-go/internal/anthropic"
	"github.com/wagiedev/toolagent-go/internal/config"
	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/engine"
	"github.com/wagiedev/toolagent-go/internal/mcp"
	"github.com/wagiedev/toolagent-go/internal/models"
	"github.com/wagiedev/toolagent-go/internal/permission"
	"github.com/wagiedev/toolagent-go/internal/protocol"
	"github.com/wagiedev/toolagent-go/internal/registry"
	"github.com/wagiedev/toolagent-go/internal/subprocess"
	"github.com/wagiedev/toolagent-go/internal/tools"
)

// Version is reported to MCP services in the initialize handshake.
const Version = "0.1.0"

// clientName identifies this agent to MCP services.
const clientName = "toolagent"

// Agent is a conversation session with its tools.
//
// An Agent handles one turn at a time; Submit and Run must not be called
// concurrently.
type Agent struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	engine     *engine.Engine
}

// New builds an agent.
//
// Startup runs in two phases. First every configured service is asked for
// its operations; a service that fails is logged and contributes none.
// Then all tools are registered: built-ins, service management tools, local
// tools, and the discovered operations. Local tool name clashes are errors;
// a discovered operation that clashes is skipped with a warning.
func New(ctx context.Context, opts ...Option) (*Agent, error) {
	options, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	specs, err := serviceSpecs(options)
	if err != nil {
		return nil, err
	}

	endpoint, maxTokens, err := buildEndpoint(log, options)
	if err != nil {
		return nil, err
	}

	gate, err := permission.NewGate(
		permission.Mode(options.PermissionMode),
		permission.Rules{Allow: options.AllowedTools, Deny: options.DisallowedTools},
		options.CanUseTool,
	)
	if err != nil {
		return nil, err
	}

	regOpts := []registry.Option{
		registry.WithTimeouts(options.DiscoverTimeout, options.CallTimeout),
	}

	if options.Handshake {
		regOpts = append(regOpts, registry.WithTransportOptions(
			protocol.WithHandshake(mcp.InitializeParams(clientName, Version)),
		))
	}

	reg := registry.New(log, specs, regOpts...)

	// Phase one: populate the discovery cache concurrently.
	discoverAll(ctx, reg)

	// Phase two: register.
	d := dispatch.New(log, reg, dispatch.WithPermission(gate))

	if !options.DisableBuiltinTools {
		if err := registerAll(d, tools.Filesystem{Root: options.WorkDir}.Descriptors()); err != nil {
			return nil, err
		}
	}

	if len(specs) > 0 {
		if err := registerAll(d, tools.Management(reg)); err != nil {
			return nil, err
		}
	}

	if err := registerAll(d, options.LocalTools); err != nil {
		return nil, err
	}

	for _, id := range reg.Services() {
		if _, err := reg.Bridge(ctx, d, id); err != nil {
			return nil, fmt.Errorf("bridge %s: %w", id, err)
		}
	}

	eng := engine.New(log, endpoint, d, options.Printer, engine.Config{
		System:          options.SystemPrompt,
		MaxOutputTokens: maxTokens,
		MaxToolTurns:    options.MaxToolTurns,
		Parallelism:     options.Parallelism,
	})

	log.With("component", "agent").Info("Agent ready",
		"session_id", eng.SessionID(),
		"tools", d.Len(),
		"services", len(specs),
	)

	return &Agent{
		registry:   reg,
		dispatcher: d,
		engine:     eng,
	}, nil
}

// resolveOptions applies the config file, if any, and then the options.
func resolveOptions(opts []Option) (*Options, error) {
	options := applyAgentOptions(opts)
	if options.ConfigFile == "" {
		return options, nil
	}

	file, err := config.Load(options.ConfigFile)
	if err != nil {
		return nil, err
	}

	merged := config.Default()
	file.Apply(merged)

	for _, opt := range opts {
		opt(merged)
	}

	return merged, nil
}

// serviceSpecs converts the configured services into launch specs.
func serviceSpecs(options *Options) (map[string]subprocess.Spec, error) {
	services := maps.Clone(options.Services)
	if services == nil {
		services = make(map[string]mcp.ServiceConfig)
	}

	if options.DefaultServices {
		for id, svc := range mcp.DefaultServices() {
			if _, ok := services[id]; !ok {
				services[id] = svc
			}
		}
	}

	specs := make(map[string]subprocess.Spec, len(services))

	for id, svc := range services {
		spec, err := svc.Spec(id)
		if err != nil {
			return nil, fmt.Errorf("configure service %s: %w", id, err)
		}

		specs[id] = spec
	}

	return specs, nil
}

// discoverAll asks every service for its operations concurrently.
// Failures are cached and logged by the registry.
func discoverAll(ctx context.Context, reg *registry.Registry) {
	var wg sync.WaitGroup

	for _, id := range reg.Services() {
		wg.Go(func() {
			_, _ = reg.Discover(ctx, id)
		})
	}

	wg.Wait()
}

func registerAll(d *dispatch.Dispatcher, descs []dispatch.Descriptor) error {
	for _, desc := range descs {
		if err := d.Register(desc); err != nil {
			return fmt.Errorf("register tool: %w", err)
		}
	}

	return nil
}

// buildEndpoint returns the configured endpoint or a Messages API client,
// and the output token cap for the resolved model.
func buildEndpoint(log *slog.Logger, options *Options) (engine.Endpoint, int, error) {
	model := models.Resolve(options.Model)
	maxTokens := models.OutputTokens(model, options.MaxOutputTokens)

	if options.Endpoint != nil {
		return options.Endpoint, maxTokens, nil
	}

	var clientOpts []anthropic.Option

	if options.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(options.BaseURL))
	}

	if options.RequestsPerMinute > 0 {
		clientOpts = append(clientOpts, anthropic.WithRateLimit(options.RequestsPerMinute, 1))
	}

	client, err := anthropic.New(log, options.APIKey, model, clientOpts...)
	if err != nil {
		return nil, 0, err
	}

	return client, maxTokens, nil
}

// SessionID returns the unique id of the session.
func (a *Agent) SessionID() string {
	return a.engine.SessionID()
}

// State reports whether the agent is waiting for input or processing a turn.
func (a *Agent) State() State {
	return a.engine.State()
}

// Submit handles one user turn, running tools until the model answers
// without requesting any.
func (a *Agent) Submit(ctx context.Context, text string) error {
	return a.engine.Submit(ctx, text)
}

// Run reads user turns from in until it is exhausted or ctx is cancelled.
func (a *Agent) Run(ctx context.Context, in InputReader) error {
	return a.engine.Run(ctx, in)
}

// Messages returns a copy of the conversation so far.
func (a *Agent) Messages() []Message {
	return a.engine.Messages()
}

// Tools returns the declarations sent to the model, in registration order.
func (a *Agent) Tools() []ToolSpec {
	return a.dispatcher.Specs()
}

// Services returns the configured service ids in sorted order.
func (a *Agent) Services() []string {
	return a.registry.Services()
}

// RefreshService rediscovers a service's operations and returns them under
// their service-side names. Newly listed operations are not added to the
// tool set of a running agent.
func (a *Agent) RefreshService(ctx context.Context, id string) ([]ToolSpec, error) {
	descs, err := a.registry.Refresh(ctx, id)
	if err != nil {
		return nil, err
	}

	specs := make([]ToolSpec, 0, len(descs))
	for _, desc := range descs {
		specs = append(specs, desc.Spec())
	}

	return specs, nil
}
