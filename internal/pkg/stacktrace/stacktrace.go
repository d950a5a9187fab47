// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that lives under an internal/ directory, in order.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ".go:") {
			continue
		}

		_, rel, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		rel, _, _ = strings.Cut(rel, " ")
		paths = append(paths, "internal/"+rel)
	}
	return paths
}
