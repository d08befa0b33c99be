package config

import "strconv"

// ProjectType selects discovery presets for a project flavor.
type ProjectType string

const (
	ProjectTypeGeneric     ProjectType = "generic"
	ProjectTypeReact       ProjectType = "react"
	ProjectTypeVue         ProjectType = "vue"
	ProjectTypeNodeBackend ProjectType = "node"
)

// Strictness scales the detection thresholds.
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset is the module discovery pattern set for one project flavor.
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset is one detection threshold tier.
type StrictnessPreset struct {
	LowDensityThreshold    float64
	SevereDensityThreshold float64
	CoverageRatio          float64
	HotspotMinLines        int
}

// GetProjectPresets maps each project flavor to its discovery patterns.
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"},
			ExcludePatterns: []string{"**/node_modules/**", "**/dist/**", "**/build/**", "**/*.min.js", "**/*.bundle.js"},
		},
		ProjectTypeReact: {
			IncludePatterns: []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"},
			ExcludePatterns: []string{"**/node_modules/**", "**/dist/**", "**/build/**", "**/.next/**", "**/coverage/**", "**/*.min.js", "**/*.bundle.js"},
		},
		ProjectTypeVue: {
			IncludePatterns: []string{"**/*.vue", "**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"},
			ExcludePatterns: []string{"**/node_modules/**", "**/dist/**", "**/build/**", "**/.nuxt/**", "**/coverage/**", "**/*.min.js", "**/*.bundle.js"},
		},
		ProjectTypeNodeBackend: {
			IncludePatterns: []string{"**/*.ts", "**/*.js", "**/*.mjs", "**/*.cjs"},
			ExcludePatterns: []string{"**/node_modules/**", "**/dist/**", "**/build/**", "**/test/**", "**/tests/**", "**/__tests__/**", "**/*.min.js", "**/*.bundle.js"},
		},
	}
}

// GetStrictnessPresets maps each tier to its detection thresholds. The
// standard tier mirrors the built-in defaults.
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed:  {LowDensityThreshold: 0.20, SevereDensityThreshold: 0.10, CoverageRatio: 0.05, HotspotMinLines: 400},
		StrictnessStandard: {LowDensityThreshold: 0.30, SevereDensityThreshold: 0.15, CoverageRatio: 0.08, HotspotMinLines: 300},
		StrictnessStrict:   {LowDensityThreshold: 0.40, SevereDensityThreshold: 0.25, CoverageRatio: 0.12, HotspotMinLines: 250},
	}
}

// GetFullConfigTemplate renders the documented starter config for the
// chosen project flavor and strictness tier.
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	preset := GetProjectPresets()[projectType]
	strict := GetStrictnessPresets()[strictness]

	includePatterns := formatYAMLList(preset.IncludePatterns)
	excludePatterns := formatYAMLList(preset.ExcludePatterns)

	return `# vitals Configuration
# Documentation: https://github.com/vitals-dev/vitals

# ==============================================================================
# ISSUE DETECTION
# ==============================================================================
# Flags modules whose pattern density or complexity drifts out of shape
detection:
  # Modules below this pattern density are flagged
  low_density_threshold: ` + formatFloat(strict.LowDensityThreshold) + `

  # Below this density the issue is raised to high severity
  severe_density_threshold: ` + formatFloat(strict.SevereDensityThreshold) + `

  # Minimum core-family share of modules before a restructure is suggested
  coverage_ratio: ` + formatFloat(strict.CoverageRatio) + `

  # Critical modules larger than this are reported as hotspots
  hotspot_min_lines: ` + strconv.Itoa(strict.HotspotMinLines) + `

  # Module paths never reported as hotspots
  hotspot_exemptions: []

# ==============================================================================
# SELF-HEALING
# ==============================================================================
# Tracks fix candidates for detected issues and can auto-apply confident ones
heal:
  # Auto-apply fixes whose confidence meets the threshold
  enabled: false

  # Minimum confidence for auto-apply (0.70 - 0.99)
  auto_apply_threshold: 0.85

# ==============================================================================
# OUTPUT SETTINGS
# ==============================================================================
output:
  # Output format: text, json, yaml, csv, html
  format: text

  # Show per-module breakdown of results
  show_details: true

  # Hide issues below this severity: low, medium, high, critical
  min_severity: ""

# ==============================================================================
# SCAN SCOPE
# ==============================================================================
# Controls which files are scanned
analysis:
  # File patterns to include (glob patterns)
  include_patterns:
` + includePatterns + `

  # File patterns to exclude (glob patterns)
  exclude_patterns:
` + excludePatterns + `

  # Skip files matched by .gitignore
  respect_gitignore: true
`
}

// GetMinimalConfigTemplate renders a compact starter config.
func GetMinimalConfigTemplate() string {
	return `# vitals Configuration (minimal)
# See full options: https://github.com/vitals-dev/vitals

detection:
  low_density_threshold: 0.30
  hotspot_min_lines: 300

heal:
  enabled: false
  auto_apply_threshold: 0.85

analysis:
  include_patterns: ["**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"]
  exclude_patterns: ["**/node_modules/**", "**/dist/**"]
`
}

// formatYAMLList formats a string slice as an indented YAML sequence.
func formatYAMLList(items []string) string {
	result := ""
	for i, item := range items {
		result += `    - "` + item + `"`
		if i < len(items)-1 {
			result += "\n"
		}
	}
	return result
}

// formatFloat renders a threshold with stable precision for templates.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
