// Package permission decides whether a tool use may run.
package permission

import (
	"context"
	"fmt"
	"path"
	"slices"

	"github.com/wagiedev/toolagent-go/internal/errors"
)

// Mode represents different permission handling modes.
type Mode string

const (
	// ModeDefault applies the rules, then the callback. Tools matched by
	// neither are allowed.
	ModeDefault Mode = "default"
	// ModePlan denies every tool use. The model can only answer in text.
	ModePlan Mode = "plan"
	// ModeBypassPermissions allows every tool use.
	ModeBypassPermissions Mode = "bypassPermissions"
)

// ParseMode validates a mode name. The empty string is ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModePlan, ModeBypassPermissions:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown permission mode %q", s)
	}
}

// Behavior represents the permission behavior for a decision.
type Behavior string

const (
	// BehaviorAllow lets the tool run.
	BehaviorAllow Behavior = "allow"
	// BehaviorDeny reports the tool use as failed without running it.
	BehaviorDeny Behavior = "deny"
)

// Result is the interface for permission decision results.
type Result interface {
	GetBehavior() Behavior
}

// Compile-time verification that permission result types implement Result.
var (
	_ Result = (*ResultAllow)(nil)
	_ Result = (*ResultDeny)(nil)
)

// ResultAllow represents an allow decision.
type ResultAllow struct {
	UpdatedInput map[string]any // Replaces the input when non-nil
}

// GetBehavior implements Result.
func (p *ResultAllow) GetBehavior() Behavior { return BehaviorAllow }

// ResultDeny represents a deny decision.
type ResultDeny struct {
	Message string // Reason for denial, shown to the model
}

// GetBehavior implements Result.
func (p *ResultDeny) GetBehavior() Behavior { return BehaviorDeny }

// Callback is called before each tool use not settled by the rules.
type Callback func(ctx context.Context, toolName string, input map[string]any) (Result, error)

// Rules list tool name patterns in path.Match syntax ("mcp_git_*").
type Rules struct {
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty" yaml:"deny,omitempty"`
}

// Validate reports the first malformed pattern.
func (r Rules) Validate() error {
	for _, p := range slices.Concat(r.Allow, r.Deny) {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid tool pattern %q: %w", p, err)
		}
	}

	return nil
}

func matchAny(patterns []string, name string) (string, bool) {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return p, true
		}
	}

	return "", false
}

// Gate applies a mode, rules and an optional callback to tool uses.
type Gate struct {
	mode     Mode
	rules    Rules
	callback Callback
}

// NewGate creates a gate. callback may be nil.
func NewGate(mode Mode, rules Rules, callback Callback) (*Gate, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}

	return &Gate{mode: mode, rules: rules, callback: callback}, nil
}

// Mode returns the gate's mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Check decides a tool use. It returns the input the tool should receive,
// or PermissionDeniedError. Deny rules take precedence over allow rules.
func (g *Gate) Check(ctx context.Context, toolName string, input map[string]any) (map[string]any, error) {
	switch g.mode {
	case ModeBypassPermissions:
		return input, nil
	case ModePlan:
		return nil, &errors.PermissionDeniedError{Tool: toolName, Reason: "tool use is disabled in plan mode"}
	}

	if p, ok := matchAny(g.rules.Deny, toolName); ok {
		return nil, &errors.PermissionDeniedError{Tool: toolName, Reason: "matches disallowed pattern " + p}
	}

	if _, ok := matchAny(g.rules.Allow, toolName); ok || g.callback == nil {
		return input, nil
	}

	result, err := g.callback(ctx, toolName, input)
	if err != nil {
		return nil, &errors.PermissionDeniedError{Tool: toolName, Reason: err.Error()}
	}

	switch r := result.(type) {
	case *ResultAllow:
		if r.UpdatedInput != nil {
			return r.UpdatedInput, nil
		}

		return input, nil
	case *ResultDeny:
		reason := r.Message
		if reason == "" {
			reason = "denied"
		}

		return nil, &errors.PermissionDeniedError{Tool: toolName, Reason: reason}
	default:
		return nil, &errors.PermissionDeniedError{Tool: toolName, Reason: fmt.Sprintf("unexpected decision %T", result)}
	}
}
