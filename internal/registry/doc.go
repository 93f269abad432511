// Package registry discovers and caches the operations offered by external
// MCP services.
//
// A Registry is created once per session with the launch specs of every
// configured service. Discover lists a service's operations with a tools/list
// call and caches them; the cache never expires and is replaced only by
// Refresh. A service that cannot be reached is cached as offering zero
// operations rather than failing the caller. CallTool executes an operation
// with a tools/call request. Every request launches a fresh process.
package registry
