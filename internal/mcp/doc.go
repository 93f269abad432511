// Package mcp holds the client side of the Model Context Protocol wire
// format used to talk to stdio tool services.
//
// It builds request params and decodes tools/list and tools/call results
// using the official SDK's types, configures how services are launched, and
// maps remote operation names into the local tool namespace. Framing and
// process handling live in internal/protocol and internal/subprocess.
package mcp
