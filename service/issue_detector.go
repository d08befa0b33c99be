package service

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// IssueDetectorImpl derives issues from a completed set of module
// records. Detection is deterministic: the same modules and thresholds
// always produce the same issues in the same order.
type IssueDetectorImpl struct{}

// NewIssueDetector creates the default issue detector
func NewIssueDetector() *IssueDetectorImpl {
	return &IssueDetectorImpl{}
}

// Detect runs every rule and returns the issues ordered by severity,
// most urgent first. Ordering is stable within a severity.
func (d *IssueDetectorImpl) Detect(modules []domain.ModuleRecord, thresholds domain.DetectorThresholds) []domain.Issue {
	if len(modules) == 0 {
		return nil
	}

	var issues []domain.Issue
	issues = append(issues, detectLowDensity(modules, thresholds)...)
	issues = append(issues, detectHotspots(modules, thresholds)...)
	issues = append(issues, detectCoverage(modules, thresholds)...)

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity.Rank() > issues[j].Severity.Rank()
	})
	return issues
}

// detectLowDensity flags non-core modules whose pattern density fell
// below the configured floor. When more modules qualify than the cap
// allows, the sparsest are reported.
func detectLowDensity(modules []domain.ModuleRecord, t domain.DetectorThresholds) []domain.Issue {
	var candidates []domain.ModuleRecord
	for _, m := range modules {
		if m.Category == domain.CategoryCore {
			continue
		}
		if m.LinesOfCode <= t.LowDensityMinLines {
			continue
		}
		if m.PatternDensity < t.LowDensityThreshold {
			candidates = append(candidates, m)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PatternDensity < candidates[j].PatternDensity
	})
	if len(candidates) > t.LowDensityCap {
		candidates = candidates[:t.LowDensityCap]
	}

	issues := make([]domain.Issue, 0, len(candidates))
	for _, m := range candidates {
		severity := domain.SeverityMedium
		if m.PatternDensity < t.SevereDensityThreshold {
			severity = domain.SeverityHigh
		}
		issues = append(issues, domain.Issue{
			ID:          domain.IssueID(domain.IssueTypeLowDensity, m.Path),
			Type:        domain.IssueTypeLowDensity,
			Severity:    severity,
			SubjectPath: m.Path,
			Title:       "Low pattern density",
			Description: fmt.Sprintf("%s has pattern density %.2f across %d lines, below the %.2f floor for %s modules",
				m.Path, m.PatternDensity, m.LinesOfCode, t.LowDensityThreshold, m.Category),
			Remediation:   "Consolidate scattered logic into recognised domain patterns or fold the module into a denser neighbour",
			ImpactSummary: "Sparse modules slow comprehension and attract unstructured growth",
			MetricName:    "patternDensity",
			Metric:        m.PatternDensity,
		})
	}
	return issues
}

// detectHotspots flags oversized critical-complexity modules that have
// not been modularized away. When more modules qualify than the cap
// allows, the largest are reported.
func detectHotspots(modules []domain.ModuleRecord, t domain.DetectorThresholds) []domain.Issue {
	var candidates []domain.ModuleRecord
	for _, m := range modules {
		if m.Complexity != domain.ComplexityCritical {
			continue
		}
		if m.LinesOfCode <= t.HotspotMinLines {
			continue
		}
		if m.HasSupersedingModules {
			continue
		}
		if isHotspotExempt(m.Path, t.HotspotExemptions) {
			continue
		}
		candidates = append(candidates, m)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].LinesOfCode > candidates[j].LinesOfCode
	})
	if len(candidates) > t.HotspotCap {
		candidates = candidates[:t.HotspotCap]
	}

	issues := make([]domain.Issue, 0, len(candidates))
	for _, m := range candidates {
		issues = append(issues, domain.Issue{
			ID:          domain.IssueID(domain.IssueTypeComplexityHotspot, m.Path),
			Type:        domain.IssueTypeComplexityHotspot,
			Severity:    domain.SeverityHigh,
			SubjectPath: m.Path,
			Title:       "Complexity hotspot",
			Description: fmt.Sprintf("%s is rated critical complexity across %d lines and has no superseding modules",
				m.Path, m.LinesOfCode),
			Remediation:   "Split the module into a sibling directory of focused submodules that collectively replace it",
			ImpactSummary: "Oversized critical modules concentrate risk and block parallel work",
			MetricName:    "linesOfCode",
			Metric:        float64(m.LinesOfCode),
		})
	}
	return issues
}

// detectCoverage raises at most one issue when the core family has
// shrunk below its expected share of the module count
func detectCoverage(modules []domain.ModuleRecord, t domain.DetectorThresholds) []domain.Issue {
	total := len(modules)
	if total == 0 {
		return nil
	}

	coreFamily := 0
	for _, m := range modules {
		if isCoreFamily(m, t.CoreFamilyMarkers) {
			coreFamily++
		}
	}

	ratio := float64(coreFamily) / float64(total)
	if ratio >= t.CoverageRatio {
		return nil
	}

	return []domain.Issue{{
		ID:       domain.IssueID(domain.IssueTypeRefactorNeeded, ""),
		Type:     domain.IssueTypeRefactorNeeded,
		Severity: domain.SeverityLow,
		Title:    "Core coverage below target",
		Description: fmt.Sprintf("core-family modules account for %d of %d (%.2f), below the %.2f floor",
			coreFamily, total, ratio, t.CoverageRatio),
		Remediation:   "Promote engine and domain logic out of feature folders into dedicated core modules",
		ImpactSummary: "A thin core leaves domain rules duplicated across features",
		MetricName:    "coreCoverageRatio",
		Metric:        ratio,
	}}
}

// isHotspotExempt matches a module against the known-refactored list,
// by full path or by filename
func isHotspotExempt(path string, exemptions []string) bool {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(normalized)
	for _, e := range exemptions {
		exempt := filepath.ToSlash(e)
		if strings.EqualFold(normalized, exempt) || strings.EqualFold(base, exempt) {
			return true
		}
	}
	return false
}

// isCoreFamily reports whether the module counts toward core coverage:
// either categorized core outright or matching a configured marker
func isCoreFamily(m domain.ModuleRecord, markers []string) bool {
	if m.Category == domain.CategoryCore {
		return true
	}
	normalized := "/" + strings.ToLower(filepath.ToSlash(m.Path))
	for _, marker := range markers {
		if marker != "" && strings.Contains(normalized, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Compile-time interface check
var _ domain.IssueDetector = (*IssueDetectorImpl)(nil)
