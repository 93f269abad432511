package registry

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/mcp"
	"github.com/wagiedev/toolagent-go/internal/protocol"
	"github.com/wagiedev/toolagent-go/internal/subprocess"
)

const (
	// DefaultDiscoverTimeout bounds a tools/list call.
	DefaultDiscoverTimeout = 30 * time.Second
	// DefaultCallTimeout bounds a tools/call call.
	DefaultCallTimeout = 60 * time.Second
)

// Entry is the cached result of one discovery.
type Entry struct {
	// Tools are the discovered operations in the order the service listed them.
	Tools []dispatch.Descriptor
	// FetchedAt is when the discovery finished.
	FetchedAt time.Time
	// Err is the discovery failure, if any. Tools is empty when set.
	Err error

	// generation orders discoveries by start; a newer entry is never
	// replaced by one that started earlier.
	generation uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeouts overrides the discovery and call timeouts. Zero keeps the default.
func WithTimeouts(discover, call time.Duration) Option {
	return func(r *Registry) {
		if discover > 0 {
			r.discoverTimeout = discover
		}

		if call > 0 {
			r.callTimeout = call
		}
	}
}

// WithTransportOptions adds options to every service transport.
func WithTransportOptions(opts ...protocol.Option) Option {
	return func(r *Registry) {
		r.transportOpts = append(r.transportOpts, opts...)
	}
}

// WithClock overrides the time source used for Entry.FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry caches the operations of configured services.
//
// Registry is safe for concurrent use. Cache entries are replaced whole, so
// readers never observe a partially written entry.
type Registry struct {
	log             *slog.Logger
	discoverTimeout time.Duration
	callTimeout     time.Duration
	transportOpts   []protocol.Option
	now             func() time.Time

	transports map[string]*protocol.Transport

	mu         sync.RWMutex
	cache      map[string]*Entry
	generation uint64

	group singleflight.Group
}

// New creates a registry for the given services. Nothing is launched until
// the first Discover or CallTool.
func New(log *slog.Logger, services map[string]subprocess.Spec, opts ...Option) *Registry {
	r := &Registry{
		log:             log.With("component", "capability_registry"),
		discoverTimeout: DefaultDiscoverTimeout,
		callTimeout:     DefaultCallTimeout,
		now:             time.Now,
		transports:      make(map[string]*protocol.Transport, len(services)),
		cache:           make(map[string]*Entry, len(services)),
	}

	for _, opt := range opts {
		opt(r)
	}

	for id, spec := range services {
		if spec.Name == "" {
			spec.Name = id
		}

		r.transports[id] = protocol.NewTransport(log, spec, r.transportOpts...)
	}

	return r
}

// Services returns the configured service ids in sorted order.
func (r *Registry) Services() []string {
	return slices.Sorted(maps.Keys(r.transports))
}

// Has reports whether serviceID is configured.
func (r *Registry) Has(serviceID string) bool {
	_, ok := r.transports[serviceID]

	return ok
}

// Discover returns the operations of a service, from the cache when present.
//
// Repeated calls return the same cached slice until Refresh. A service that
// fails to answer is logged and cached with no operations; the error is not
// returned. An unknown serviceID returns ServiceUnavailableError.
func (r *Registry) Discover(ctx context.Context, serviceID string) ([]dispatch.Descriptor, error) {
	if entry, ok := r.Entry(serviceID); ok {
		return entry.Tools, nil
	}

	return r.fetch(ctx, serviceID, false)
}

// Refresh re-runs discovery unconditionally and replaces the cache entry.
func (r *Registry) Refresh(ctx context.Context, serviceID string) ([]dispatch.Descriptor, error) {
	return r.fetch(ctx, serviceID, true)
}

// Entry returns the cached entry for serviceID without launching anything.
func (r *Registry) Entry(serviceID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[serviceID]
	if !ok {
		return Entry{}, false
	}

	return *entry, true
}

// Describe returns the cached descriptor of one operation.
func (r *Registry) Describe(serviceID, operation string) (dispatch.Descriptor, error) {
	entry, ok := r.Entry(serviceID)
	if !ok {
		return dispatch.Descriptor{}, &errors.ToolNotFoundError{Name: serviceID + "/" + operation}
	}

	for _, desc := range entry.Tools {
		if desc.Name == operation {
			return desc, nil
		}
	}

	return dispatch.Descriptor{}, &errors.ToolNotFoundError{Name: serviceID + "/" + operation}
}

func (r *Registry) fetch(ctx context.Context, serviceID string, refresh bool) ([]dispatch.Descriptor, error) {
	transport, ok := r.transports[serviceID]
	if !ok {
		return nil, &errors.ServiceUnavailableError{Service: serviceID, Err: errors.ErrUnknownService}
	}

	key := serviceID
	if refresh {
		// A refresh must not piggyback on a discovery that started earlier.
		key = "refresh:" + serviceID
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		if !refresh {
			if entry, ok := r.Entry(serviceID); ok {
				return entry.Tools, nil
			}
		}

		r.mu.Lock()
		r.generation++
		generation := r.generation
		r.mu.Unlock()

		entry := r.discover(ctx, serviceID, transport)
		entry.generation = generation

		return r.store(serviceID, entry).Tools, nil
	})

	tools, _ := v.([]dispatch.Descriptor)

	return tools, nil
}

// store caches entry unless a discovery that started later already stored
// its own, and returns the entry left in the cache.
func (r *Registry) store(serviceID string, entry *Entry) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.cache[serviceID]; ok && current.generation > entry.generation {
		r.log.Debug("Discarding stale discovery", "service", serviceID)

		return current
	}

	r.cache[serviceID] = entry

	return entry
}

func (r *Registry) discover(ctx context.Context, serviceID string, transport *protocol.Transport) *Entry {
	log := r.log.With("service", serviceID)
	start := r.now()

	tools, err := r.list(ctx, transport)
	if err != nil {
		log.Warn("Tool discovery failed, caching empty list", "error", err)

		return &Entry{Tools: []dispatch.Descriptor{}, FetchedAt: r.now(), Err: err}
	}

	descs := make([]dispatch.Descriptor, 0, len(tools))
	for _, tool := range tools {
		descs = append(descs, dispatch.Descriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Invoker:     dispatch.RemoteOp{ServiceID: serviceID, RemoteName: tool.Name},
		})
	}

	log.Info("Discovered tools", "count", len(descs), "duration", r.now().Sub(start))

	return &Entry{Tools: descs, FetchedAt: r.now()}
}

func (r *Registry) list(ctx context.Context, transport *protocol.Transport) ([]mcp.RemoteTool, error) {
	result, err := transport.Call(ctx, mcp.MethodToolsList, map[string]any{}, r.discoverTimeout)
	if err != nil {
		return nil, err
	}

	return mcp.DecodeToolList(result)
}

// CallTool executes an operation on a service and returns its text output.
// A result flagged as an error by the service is returned as
// ToolExecutionError carrying the service's message.
func (r *Registry) CallTool(ctx context.Context, serviceID, operation string, args map[string]any) (string, error) {
	transport, ok := r.transports[serviceID]
	if !ok {
		return "", &errors.ServiceUnavailableError{Service: serviceID, Err: errors.ErrUnknownService}
	}

	params, err := mcp.CallToolParams(operation, args)
	if err != nil {
		return "", err
	}

	result, err := transport.Call(ctx, mcp.MethodToolsCall, params, r.callTimeout)
	if err != nil {
		return "", fmt.Errorf("call %s on %s: %w", operation, serviceID, err)
	}

	outcome := mcp.DecodeCallResult(result)
	if outcome.IsError {
		return "", &errors.ToolExecutionError{Tool: operation, Err: stderrors.New(outcome.Text)}
	}

	return outcome.Text, nil
}

// Bridge discovers a service and registers each operation in d under its
// namespaced name (see mcp.ToolName). Operations whose name collides with an
// existing tool are skipped with a warning. Returns the number registered.
func (r *Registry) Bridge(ctx context.Context, d *dispatch.Dispatcher, serviceID string) (int, error) {
	tools, err := r.Discover(ctx, serviceID)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, desc := range tools {
		bridged := desc
		bridged.Name = mcp.ToolName(serviceID, desc.Name)

		if bridged.Description == "" {
			bridged.Description = fmt.Sprintf("%s operation %s", serviceID, desc.Name)
		}

		if err := d.Register(bridged); err != nil {
			r.log.Warn("Skipping remote tool", "service", serviceID, "tool", bridged.Name, "error", err)

			continue
		}

		count++
	}

	r.log.Debug("Bridged remote tools", "service", serviceID, "count", count)

	return count, nil
}
