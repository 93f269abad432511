package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AgentError is the base interface for all agent errors.
type AgentError interface {
	error
	IsAgentError() bool
}

// Compile-time verification that all error types implement AgentError.
var (
	_ AgentError = (*EndpointError)(nil)
	_ AgentError = (*ToolNotFoundError)(nil)
	_ AgentError = (*ToolValidationError)(nil)
	_ AgentError = (*ToolExecutionError)(nil)
	_ AgentError = (*DuplicateNameError)(nil)
	_ AgentError = (*RPCProtocolError)(nil)
	_ AgentError = (*RPCTimeoutError)(nil)
	_ AgentError = (*ServiceUnavailableError)(nil)
	_ AgentError = (*PermissionDeniedError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrTimeout indicates an RPC call did not receive a response in time.
	ErrTimeout = errors.New("rpc timeout")

	// ErrToolTurnLimit indicates the model kept requesting tools past the
	// configured number of consecutive tool-driven turns.
	ErrToolTurnLimit = errors.New("consecutive tool turn limit reached")

	// ErrNoAPIKey indicates no API key was configured for the model endpoint.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrUnknownService indicates a service id has no launch configuration.
	ErrUnknownService = errors.New("unknown service")
)

// EndpointError indicates the model endpoint call failed.
type EndpointError struct {
	StatusCode int
	Err        error
}

func (e *EndpointError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model endpoint failed (status %d): %v", e.StatusCode, e.Err)
	}

	return fmt.Sprintf("model endpoint failed: %v", e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// IsAgentError implements AgentError.
func (e *EndpointError) IsAgentError() bool { return true }

// ToolNotFoundError indicates no tool is registered under the requested name.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// IsAgentError implements AgentError.
func (e *ToolNotFoundError) IsAgentError() bool { return true }

// ToolValidationError indicates tool input did not match the declared schema.
type ToolValidationError struct {
	Tool    string
	Missing []string
	Err     error
}

func (e *ToolValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid input for %s: missing required argument(s) %s",
			e.Tool, strings.Join(e.Missing, ", "))
	}

	return fmt.Sprintf("invalid input for %s: %v", e.Tool, e.Err)
}

func (e *ToolValidationError) Unwrap() error {
	return e.Err
}

// IsAgentError implements AgentError.
func (e *ToolValidationError) IsAgentError() bool { return true }

// ToolExecutionError indicates a tool capability failed while running.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// IsAgentError implements AgentError.
func (e *ToolExecutionError) IsAgentError() bool { return true }

// DuplicateNameError indicates a tool name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// IsAgentError implements AgentError.
func (e *DuplicateNameError) IsAgentError() bool { return true }

// RPCProtocolError indicates a service replied with a malformed response.
// RawData preserves the offending line.
type RPCProtocolError struct {
	Reason  string
	RawData string
	Err     error
}

func (e *RPCProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpc protocol error: %s: %v", e.Reason, e.Err)
	}

	return "rpc protocol error: " + e.Reason
}

func (e *RPCProtocolError) Unwrap() error {
	return e.Err
}

// IsAgentError implements AgentError.
func (e *RPCProtocolError) IsAgentError() bool { return true }

// RPCTimeoutError indicates a call was abandoned after its timeout and the
// child process was killed.
type RPCTimeoutError struct {
	Method  string
	Timeout string
}

func (e *RPCTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Method, e.Timeout)
}

// Unwrap returns ErrTimeout so callers can use errors.Is.
func (e *RPCTimeoutError) Unwrap() error {
	return ErrTimeout
}

// IsAgentError implements AgentError.
func (e *RPCTimeoutError) IsAgentError() bool { return true }

// ServiceUnavailableError indicates a service process could not be launched.
type ServiceUnavailableError struct {
	Service string
	Command []string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if len(e.Command) > 0 {
		return fmt.Sprintf("service %s unavailable (%s): %v", e.Service, e.Command[0], e.Err)
	}

	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// IsAgentError implements AgentError.
func (e *ServiceUnavailableError) IsAgentError() bool { return true }

// PermissionDeniedError indicates a tool use was refused before it ran.
type PermissionDeniedError struct {
	Tool   string
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for %s: %s", e.Tool, e.Reason)
}

// IsAgentError implements AgentError.
func (e *PermissionDeniedError) IsAgentError() bool { return true }
