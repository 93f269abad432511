// Package dispatch resolves tool names to implementations and executes them.
//
// A Dispatcher holds Descriptors in registration order. Each descriptor is
// backed either by an in-process LocalFunc or by a RemoteOp reached through
// a RemoteCaller. Execute never returns an error: every failure, including an
// unknown tool name, invalid input or a panicking tool, is turned into a
// Result with IsError set so it can be reported back to the model.
package dispatch
