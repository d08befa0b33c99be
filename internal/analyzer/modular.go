package analyzer

import (
	"path/filepath"
	"strings"
)

// SupersededPaths returns the set of module paths that have been
// modularized away: a module src/core/engine.ts is superseded once a
// sibling directory src/core/engine/ holds at least one other module.
// Superseded modules keep their records but are exempt from hotspot
// detection.
func SupersededPaths(paths []string) map[string]bool {
	superseded := make(map[string]bool)

	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = filepath.ToSlash(p)
	}

	for i, p := range normalized {
		ext := filepath.Ext(p)
		if ext == "" {
			continue
		}
		prefix := strings.TrimSuffix(p, ext) + "/"
		for j, other := range normalized {
			if j == i {
				continue
			}
			if strings.HasPrefix(other, prefix) {
				superseded[paths[i]] = true
				break
			}
		}
	}

	return superseded
}
