package analyzer

import (
	"path/filepath"
	"strings"
)

// ExclusionRule names one class of module that scans skip entirely.
// Rules run against the normalized path in order; the first hit wins.
type ExclusionRule struct {
	Name  string
	Match func(path string) bool
}

func containsAny(path string, markers ...string) bool {
	for _, marker := range markers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

func hasAnySuffix(path string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// moduleExclusionRules lists the module classes that carry no signal
// for scanning: test code, type declarations, and generated output.
var moduleExclusionRules = []ExclusionRule{
	{
		Name: "test-file",
		Match: func(path string) bool {
			return containsAny(path, ".test.", ".spec.")
		},
	},
	{
		Name: "test-directory",
		Match: func(path string) bool {
			return containsAny(path, "/__tests__/", "/__mocks__/", "/test/", "/tests/")
		},
	},
	{
		Name: "type-declaration",
		Match: func(path string) bool {
			return hasAnySuffix(path, ".d.ts", ".d.mts", ".d.cts")
		},
	},
	{
		Name: "auto-generated",
		Match: func(path string) bool {
			return containsAny(path, ".generated.", ".gen.", "/generated/", "/__generated__/")
		},
	},
}

// ExcludedModuleRule reports which exclusion rule removes the path from
// scans, if any
func ExcludedModuleRule(path string) (string, bool) {
	normalized := "/" + strings.ToLower(filepath.ToSlash(path))
	for _, rule := range moduleExclusionRules {
		if rule.Match(normalized) {
			return rule.Name, true
		}
	}
	return "", false
}

// IsExcludedModule reports whether scans skip the path
func IsExcludedModule(path string) bool {
	_, excluded := ExcludedModuleRule(path)
	return excluded
}
