package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// descriptorExportLimit caps how many named exports a description lists.
// The "+N more" suffix always reflects the true remainder.
const descriptorExportLimit = 3

// categoryDescriptions are the fallback descriptions used when a
// module exposes no recognizable exports.
var categoryDescriptions = map[domain.Category]string{
	domain.CategoryCore:     "Core orchestration and engine logic",
	domain.CategoryServices: "Service layer integration module",
	domain.CategoryFeatures: "Feature implementation module",
	domain.CategoryUI:       "User interface component",
	domain.CategoryUtility:  "Shared utility module",
	domain.CategoryTypeDefs: "Type definitions",
	domain.CategoryHooks:    "Reusable stateful hook",
	domain.CategoryStores:   "Application state store",
	domain.CategoryPages:    "Page-level view module",
}

// namedExportPattern matches export declarations carrying a name
var namedExportPattern = regexp.MustCompile(`(?m)^\s*export\s+(?:declare\s+)?(?:abstract\s+)?(?:async\s+)?(?:const|let|var|function\*?|class|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)

// exportListPattern matches export lists: export { a, b as c }
var exportListPattern = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}`)

// defaultExportPattern matches any default export
var defaultExportPattern = regexp.MustCompile(`(?m)^\s*export\s+default\b`)

// defaultExportNamePattern captures the name of a default-exported
// function or class when it has one
var defaultExportNamePattern = regexp.MustCompile(`(?m)^\s*export\s+default\s+(?:async\s+)?(?:function\*?|class)\s+([A-Za-z_$][\w$]*)`)

// NamedExports returns the module's named exports in source order,
// deduplicated. Re-exported defaults are not named exports and are
// skipped.
func NamedExports(content string) []string {
	seen := make(map[string]bool)
	var names []string

	add := func(name string) {
		if name == "" || name == "default" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, match := range namedExportPattern.FindAllStringSubmatch(content, -1) {
		add(match[1])
	}

	for _, match := range exportListPattern.FindAllStringSubmatch(content, -1) {
		for _, item := range strings.Split(match[1], ",") {
			item = strings.TrimSpace(item)
			item = strings.TrimPrefix(item, "type ")
			if item == "" {
				continue
			}
			// "local as exported" exposes the exported name
			if idx := strings.LastIndex(item, " as "); idx >= 0 {
				item = strings.TrimSpace(item[idx+4:])
			}
			add(item)
		}
	}

	return names
}

// DefaultExport reports whether the module has a default export and
// returns its name when the exported function or class carries one.
func DefaultExport(content string) (string, bool) {
	if !defaultExportPattern.MatchString(content) {
		return "", false
	}
	if match := defaultExportNamePattern.FindStringSubmatch(content); match != nil {
		return match[1], true
	}
	return "", true
}

// Describe summarizes a module from its exports. Named exports win,
// then a default export, then a fixed per-category fallback.
func Describe(content string, category domain.Category) string {
	named := NamedExports(content)
	if len(named) > 0 {
		listed := named
		if len(listed) > descriptorExportLimit {
			listed = listed[:descriptorExportLimit]
		}
		description := "Exports: " + strings.Join(listed, ", ")
		if extra := len(named) - len(listed); extra > 0 {
			description += fmt.Sprintf(" +%d more", extra)
		}
		return description
	}

	if name, ok := DefaultExport(content); ok {
		if name != "" {
			return "Default export: " + name
		}
		return "Default export module"
	}

	if description, ok := categoryDescriptions[category]; ok {
		return description
	}
	return categoryDescriptions[domain.CategoryUtility]
}
