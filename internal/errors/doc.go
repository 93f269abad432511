// Package errors defines error types for the tool agent.
//
// Tool-related failures are converted into error tool results at the
// dispatcher boundary, so most of these types only surface through logs or
// through the content of a tool result. Endpoint failures and contract
// violations are the ones callers see directly. All error types support
// unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
