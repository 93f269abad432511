package dispatch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/toolagent-go/internal/errors"
	"github.com/wagiedev/toolagent-go/internal/message"
)

// NotFoundContent is the result content for an unknown tool name.
const NotFoundContent = "tool not found"

// Result is the outcome of executing a tool.
type Result struct {
	Content string
	IsError bool
}

// PermissionChecker approves a tool use before it runs and may replace its
// input. permission.Gate implements it.
type PermissionChecker interface {
	Check(ctx context.Context, toolName string, input map[string]any) (map[string]any, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPermission checks every validated tool use with checker.
func WithPermission(checker PermissionChecker) Option {
	return func(d *Dispatcher) {
		d.permission = checker
	}
}

// entry pairs a descriptor with its schema resolved for validation.
type entry struct {
	desc     Descriptor
	resolved *jsonschema.Resolved
}

// Dispatcher maps tool names to descriptors and executes them.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	log        *slog.Logger
	remote     RemoteCaller
	permission PermissionChecker

	mu    sync.RWMutex
	order []string
	tools map[string]*entry
}

// New creates a dispatcher. remote may be nil when no remote tools are
// registered.
func New(log *slog.Logger, remote RemoteCaller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:    log.With("component", "dispatcher"),
		remote: remote,
		tools:  make(map[string]*entry, 16),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Register adds a descriptor. Returns DuplicateNameError if the name is
// already taken.
func (d *Dispatcher) Register(desc Descriptor) error {
	if desc.Name == "" {
		return stderrors.New("tool descriptor without name")
	}

	if desc.Invoker == nil {
		return fmt.Errorf("tool %s has no invoker", desc.Name)
	}

	if fn, ok := desc.Invoker.(LocalFunc); ok && fn == nil {
		return fmt.Errorf("tool %s has a nil function", desc.Name)
	}

	e := &entry{desc: desc, resolved: d.resolve(desc)}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tools[desc.Name]; exists {
		return &errors.DuplicateNameError{Name: desc.Name}
	}

	d.tools[desc.Name] = e
	d.order = append(d.order, desc.Name)

	d.log.Debug("Registered tool", "tool", desc.Name, "remote", desc.Remote())

	return nil
}

// resolve prepares the schema for type checking. Required and additional
// properties are checked separately, so both are relaxed here. A schema that
// cannot be resolved disables type checking for the tool.
func (d *Dispatcher) resolve(desc Descriptor) *jsonschema.Resolved {
	if desc.InputSchema == nil {
		return nil
	}

	schema := desc.InputSchema.CloneSchemas()
	schema.Required = nil
	schema.AdditionalProperties = nil

	resolved, err := schema.Resolve(nil)
	if err != nil {
		d.log.Debug("Input schema not usable for validation", "tool", desc.Name, "error", err)

		return nil
	}

	return resolved
}

// Resolve returns the descriptor registered under name.
func (d *Dispatcher) Resolve(name string) (Descriptor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.tools[name]
	if !ok {
		return Descriptor{}, &errors.ToolNotFoundError{Name: name}
	}

	return e.desc, nil
}

// Names returns the registered tool names in registration order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.order)
}

// Len returns the number of registered tools.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.order)
}

// Specs returns the endpoint-facing declarations in registration order.
func (d *Dispatcher) Specs() []message.ToolSpec {
	d.mu.RLock()
	defer d.mu.RUnlock()

	specs := make([]message.ToolSpec, 0, len(d.order))
	for _, name := range d.order {
		specs = append(specs, d.tools[name].desc.Spec())
	}

	return specs
}

// Handle executes a tool use and returns the matching tool result.
func (d *Dispatcher) Handle(ctx context.Context, use *message.ToolUseBlock) *message.ToolResultBlock {
	res := d.Execute(ctx, use.Name, use.Input)

	return &message.ToolResultBlock{
		ToolUseID: use.ID,
		Content:   res.Content,
		IsError:   res.IsError,
	}
}

// Execute validates input and invokes the named tool. It never returns an
// error; failures are reported in the Result. A panic anywhere below it, in
// the tool, the permission check or the remote caller, is reported the same
// way.
func (d *Dispatcher) Execute(ctx context.Context, name string, input map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := &errors.ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
			d.log.Error("Tool panicked", "tool", name, "panic", r)

			res = Result{Content: failureMessage(err), IsError: true}
		}
	}()

	d.mu.RLock()
	e, ok := d.tools[name]
	d.mu.RUnlock()

	if !ok {
		d.log.Warn("Tool not found", "tool", name)

		return Result{Content: NotFoundContent, IsError: true}
	}

	log := d.log.With("tool", name)

	if input == nil {
		input = map[string]any{}
	}

	if err := d.validate(log, e, input); err != nil {
		log.Warn("Tool input rejected", "error", err)

		return Result{Content: err.Error(), IsError: true}
	}

	if d.permission != nil {
		approved, err := d.permission.Check(ctx, name, input)
		if err != nil {
			log.Info("Tool use denied", "error", err)

			return Result{Content: err.Error(), IsError: true}
		}

		input = approved
	}

	out, err := d.invoke(ctx, e.desc, input)
	if err != nil {
		log.Warn("Tool execution failed", "error", err)

		return Result{Content: failureMessage(err), IsError: true}
	}

	log.Debug("Tool executed", "bytes", len(out))

	return Result{Content: out}
}

// validate checks required properties, warns about unknown ones and type
// checks the rest against the schema.
func (d *Dispatcher) validate(log *slog.Logger, e *entry, input map[string]any) error {
	schema := e.desc.InputSchema
	if schema == nil {
		return nil
	}

	var missing []string

	for _, req := range schema.Required {
		if _, ok := input[req]; !ok {
			missing = append(missing, req)
		}
	}

	if len(missing) > 0 {
		return &errors.ToolValidationError{Tool: e.desc.Name, Missing: missing}
	}

	if schema.Properties != nil {
		var unknown []string

		for key := range input {
			if _, ok := schema.Properties[key]; !ok {
				unknown = append(unknown, key)
			}
		}

		if len(unknown) > 0 {
			sort.Strings(unknown)
			log.Warn("Unknown tool arguments", "arguments", unknown)
		}
	}

	if e.resolved == nil {
		return nil
	}

	// Round-trip through JSON so Go numeric types validate like decoded JSON.
	normalized, err := normalize(input)
	if err != nil {
		return &errors.ToolValidationError{Tool: e.desc.Name, Err: err}
	}

	if err := e.resolved.Validate(normalized); err != nil {
		return &errors.ToolValidationError{Tool: e.desc.Name, Err: err}
	}

	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, desc Descriptor, input map[string]any) (string, error) {
	switch inv := desc.Invoker.(type) {
	case LocalFunc:
		out, err := inv(ctx, input)
		if err != nil {
			return "", &errors.ToolExecutionError{Tool: desc.Name, Err: err}
		}

		return out, nil
	case RemoteOp:
		if d.remote == nil {
			return "", &errors.ToolExecutionError{Tool: desc.Name, Err: stderrors.New("no remote caller configured")}
		}

		return d.remote.CallTool(ctx, inv.ServiceID, inv.RemoteName, input)
	default:
		return "", &errors.ToolExecutionError{Tool: desc.Name, Err: fmt.Errorf("unsupported invoker %T", inv)}
	}
}

// failureMessage returns the message shown to the model for a failed tool.
// Execution errors are unwrapped to the capability's own message.
func failureMessage(err error) string {
	if execErr, ok := stderrors.AsType[*errors.ToolExecutionError](err); ok && execErr.Err != nil {
		return execErr.Err.Error()
	}

	return err.Error()
}

func normalize(input map[string]any) (any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	return out, nil
}
