package domain

import "fmt"

// IssueType represents the kind of problem detected in a scan
type IssueType string

const (
	IssueTypeLowDensity        IssueType = "lowDensity"
	IssueTypeComplexityHotspot IssueType = "complexityHotspot"
	IssueTypeMissingCoverage   IssueType = "missingCoverage"
	IssueTypeRefactorNeeded    IssueType = "refactorNeeded"
)

// Severity represents how urgent an issue is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering of the severity. Higher ranks are more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether the severity is at or above the given floor.
// An empty floor admits every severity.
func (s Severity) AtLeast(floor Severity) bool {
	if floor == "" {
		return true
	}
	return s.Rank() >= floor.Rank()
}

// Issue represents one detected problem, carrying everything needed to
// render it and to hand it to the healing controller.
type Issue struct {
	ID                string    `json:"id" yaml:"id"`
	Type              IssueType `json:"type" yaml:"type"`
	Severity          Severity  `json:"severity" yaml:"severity"`
	SubjectPath       string    `json:"subjectPath,omitempty" yaml:"subjectPath,omitempty"`
	Title             string    `json:"title" yaml:"title"`
	Description       string    `json:"description" yaml:"description"`
	Remediation       string    `json:"remediation" yaml:"remediation"`
	ImpactSummary     string    `json:"impactSummary" yaml:"impactSummary"`
	RemediationPrompt string    `json:"remediationPrompt" yaml:"remediationPrompt"`

	// MetricName and Metric carry the measured value that triggered the
	// issue, e.g. ("patternDensity", 0.12)
	MetricName string  `json:"metricName,omitempty" yaml:"metricName,omitempty"`
	Metric     float64 `json:"metric,omitempty" yaml:"metric,omitempty"`
}

// IssueID derives the stable identifier for an issue. Identical scans
// produce identical IDs, which is what lets the healing controller
// deduplicate candidates across runs.
func IssueID(issueType IssueType, subjectPath string) string {
	if subjectPath == "" {
		return string(issueType)
	}
	return fmt.Sprintf("%s:%s", issueType, subjectPath)
}

// Default detection thresholds
const (
	// DefaultLowDensityThreshold flags modules whose pattern density
	// falls below this value
	DefaultLowDensityThreshold = 0.30

	// DefaultSevereDensityThreshold raises a low-density issue from
	// medium to high severity
	DefaultSevereDensityThreshold = 0.15

	// DefaultLowDensityMinLines is the minimum module size considered
	// for low-density issues
	DefaultLowDensityMinLines = 50

	// DefaultLowDensityCap limits how many low-density issues one scan reports
	DefaultLowDensityCap = 3

	// DefaultHotspotMinLines is the minimum module size considered for
	// complexity hotspot issues
	DefaultHotspotMinLines = 300

	// DefaultHotspotCap limits how many hotspot issues one scan reports
	DefaultHotspotCap = 2

	// DefaultCoverageRatio is the minimum fraction of modules expected
	// in the core family before a restructure issue is raised
	DefaultCoverageRatio = 0.08
)

// DetectorThresholds represents the tunable limits of issue detection
type DetectorThresholds struct {
	// LowDensityThreshold flags modules below this pattern density
	LowDensityThreshold float64 `json:"low_density_threshold" yaml:"low_density_threshold"`
	// SevereDensityThreshold promotes low-density issues to high severity
	SevereDensityThreshold float64 `json:"severe_density_threshold" yaml:"severe_density_threshold"`
	// LowDensityMinLines is the minimum module size for density issues
	LowDensityMinLines int `json:"low_density_min_lines" yaml:"low_density_min_lines"`
	// LowDensityCap limits low-density issues per scan
	LowDensityCap int `json:"low_density_cap" yaml:"low_density_cap"`
	// HotspotMinLines is the minimum module size for hotspot issues
	HotspotMinLines int `json:"hotspot_min_lines" yaml:"hotspot_min_lines"`
	// HotspotCap limits hotspot issues per scan
	HotspotCap int `json:"hotspot_cap" yaml:"hotspot_cap"`
	// CoverageRatio is the minimum core-family fraction of all modules
	CoverageRatio float64 `json:"coverage_ratio" yaml:"coverage_ratio"`
	// HotspotExemptions lists module paths never reported as hotspots
	HotspotExemptions []string `json:"hotspot_exemptions" yaml:"hotspot_exemptions"`
	// CoreFamilyMarkers lists extra path substrings counted toward the
	// core family when checking coverage
	CoreFamilyMarkers []string `json:"core_family_markers" yaml:"core_family_markers"`
}

// DefaultDetectorThresholds returns the standard detection limits
func DefaultDetectorThresholds() DetectorThresholds {
	return DetectorThresholds{
		LowDensityThreshold:    DefaultLowDensityThreshold,
		SevereDensityThreshold: DefaultSevereDensityThreshold,
		LowDensityMinLines:     DefaultLowDensityMinLines,
		LowDensityCap:          DefaultLowDensityCap,
		HotspotMinLines:        DefaultHotspotMinLines,
		HotspotCap:             DefaultHotspotCap,
		CoverageRatio:          DefaultCoverageRatio,
		HotspotExemptions:      []string{},
		CoreFamilyMarkers:      []string{},
	}
}

// IssueDetector derives issues from a completed set of module records
type IssueDetector interface {
	Detect(modules []ModuleRecord, thresholds DetectorThresholds) []Issue
}

// PromptGenerator builds remediation prompt text from detected issues.
// Generation is pure string assembly over issue data.
type PromptGenerator interface {
	// IssuePrompt builds the remediation prompt for a single issue
	IssuePrompt(issue Issue) string
	// BundledPrompt builds one combined prompt covering every high and
	// critical issue in the slice
	BundledPrompt(issues []Issue) string
}
