package mcp

import (
	"regexp"
	"strings"
)

// ToolPrefix starts every bridged remote tool name.
const ToolPrefix = "mcp_"

// sanitizeRe matches characters that are not lowercase alphanumeric or underscore.
var sanitizeRe = regexp.MustCompile(`[^a-z0-9_]`)

// ToolName returns the local tool name for a remote operation:
// mcp_<service>_<operation>, both parts sanitized.
func ToolName(service, operation string) string {
	return ToolPrefix + sanitize(service) + "_" + sanitize(operation)
}

// sanitize lowercases name and replaces anything outside [a-z0-9_] with
// underscores, collapsing runs.
func sanitize(name string) string {
	s := strings.ToLower(name)
	s = sanitizeRe.ReplaceAllString(s, "_")

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	return strings.Trim(s, "_")
}
