// Package protocol implements the JSON-RPC 2.0 client used to reach MCP
// services running as child processes.
//
// Each Transport.Call launches the service fresh, writes one newline-framed
// request to its stdin, waits for the matching newline-framed response on
// stdout, and kills the process before returning. Request ids increase
// monotonically per Transport and are never reused.
//
// A call moves through these states:
//
//	Idle -> Launching -> AwaitingResponse -> Delivered | TimedOut | Errored
//
// Example usage:
//
//	transport := protocol.NewTransport(log, subprocess.Spec{
//	    Name: "filesystem",
//	    Argv: []string{"npx", "-y", "@modelcontextprotocol/server-filesystem", "."},
//	})
//
//	result, err := transport.Call(ctx, "tools/list", nil, 30*time.Second)
package protocol
