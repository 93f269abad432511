// Package subprocess launches and tears down the child processes that host
// MCP services.
//
// A Process owns its stdin/stdout pipes, drains stderr into a capped buffer
// for diagnostics, and guarantees that Close kills and reaps the child
// exactly once no matter how many times it is called.
package subprocess
