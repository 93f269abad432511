// Package mcptest provides a scriptable fake MCP service for tests.
//
// The fake runs inside the test binary itself: a package's TestMain calls
// Main, which takes over the process when the binary was launched as a
// service by Spec. Each Mode selects a different reply behaviour, covering
// well-formed servers as well as the malformed and silent ones the client
// must tolerate.
package mcptest
