package toolagent

import "github.com/wagiedev/toolagent-go/internal/errors"

// Re-export error types from internal package

// AgentError is the base interface for all agent errors.
type AgentError = errors.AgentError

// EndpointError indicates the model endpoint call failed.
type EndpointError = errors.EndpointError

// ToolNotFoundError indicates no tool is registered under a name.
type ToolNotFoundError = errors.ToolNotFoundError

// ToolValidationError indicates tool input did not match its schema.
type ToolValidationError = errors.ToolValidationError

// ToolExecutionError indicates a tool failed while running.
type ToolExecutionError = errors.ToolExecutionError

// DuplicateNameError indicates a tool name is already registered.
type DuplicateNameError = errors.DuplicateNameError

// RPCProtocolError indicates a service sent a malformed response.
type RPCProtocolError = errors.RPCProtocolError

// RPCTimeoutError indicates a service call timed out.
type RPCTimeoutError = errors.RPCTimeoutError

// ServiceUnavailableError indicates a service could not be launched.
type ServiceUnavailableError = errors.ServiceUnavailableError

// PermissionDeniedError indicates a tool use was refused before it ran.
type PermissionDeniedError = errors.PermissionDeniedError

// Re-export sentinel errors from internal package.
var (
	// ErrTimeout indicates a service call did not answer in time.
	ErrTimeout = errors.ErrTimeout

	// ErrToolTurnLimit indicates a turn was stopped after too many
	// consecutive tool turns.
	ErrToolTurnLimit = errors.ErrToolTurnLimit

	// ErrNoAPIKey indicates no API key was configured.
	ErrNoAPIKey = errors.ErrNoAPIKey

	// ErrUnknownService indicates a service id has no configuration.
	ErrUnknownService = errors.ErrUnknownService
)
