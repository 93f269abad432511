package subprocess

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// BuildEnvironment returns the current process environment with overlay
// applied. Overlay keys replace inherited values; the result lists inherited
// variables first, then overlay variables in sorted key order.
func BuildEnvironment(overlay map[string]string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+len(overlay))

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overlay[key]; replaced {
			continue
		}

		env = append(env, kv)
	}

	for _, key := range slices.Sorted(maps.Keys(overlay)) {
		env = append(env, key+"="+overlay[key])
	}

	return env
}
