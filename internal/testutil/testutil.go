// Package testutil builds module fixtures for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteModule writes a module fixture under dir, creating intermediate
// directories, and returns its absolute path.
func WriteModule(t *testing.T, dir, relPath, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return full
}

// ModuleContent builds synthetic module source with the given total
// line count. The first exportCount lines are named exports, which
// also serve as vocabulary hits for density scoring.
func ModuleContent(lines, exportCount int) string {
	if exportCount > lines {
		exportCount = lines
	}
	parts := make([]string, 0, lines)
	for i := 0; i < exportCount; i++ {
		parts = append(parts, fmt.Sprintf("export const item%d = %d;", i, i))
	}
	for i := exportCount; i < lines; i++ {
		parts = append(parts, fmt.Sprintf("const value%d = %d;", i, i))
	}
	return strings.Join(parts, "\n")
}
