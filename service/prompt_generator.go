package service

import (
	"fmt"
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// Aggregate improvement credited per bundled issue, in percent
const bundledImpactPercentPerIssue = 8

// PromptGeneratorImpl builds remediation prompt text from issues.
// Generation is pure string assembly: no I/O, no external calls.
type PromptGeneratorImpl struct{}

// NewPromptGenerator creates the default prompt generator
func NewPromptGenerator() *PromptGeneratorImpl {
	return &PromptGeneratorImpl{}
}

// IssuePrompt builds a short instruction for fixing a single issue,
// referencing the subject module and the measured value that tripped
// the detector.
func (g *PromptGeneratorImpl) IssuePrompt(issue domain.Issue) string {
	switch issue.Type {
	case domain.IssueTypeLowDensity:
		return fmt.Sprintf(
			"Refactor %s to raise its pattern density, currently %.2f. Extract repeated logic into named domain patterns and remove pass-through glue.",
			issue.SubjectPath, issue.Metric)
	case domain.IssueTypeComplexityHotspot:
		return fmt.Sprintf(
			"Modularize %s: the module is rated critical complexity at %.0f lines. Split it into a directory of focused submodules that collectively replace it.",
			issue.SubjectPath, issue.Metric)
	case domain.IssueTypeMissingCoverage:
		return fmt.Sprintf(
			"Bring %s under analysis coverage, currently %.2f. Add the module to the scan roots or drop the exclusion hiding it.",
			issue.SubjectPath, issue.Metric)
	case domain.IssueTypeRefactorNeeded:
		return fmt.Sprintf(
			"Restructure the codebase to grow its core family: core modules account for only %.2f of the total. Promote engine and domain logic out of feature folders into dedicated core modules.",
			issue.Metric)
	default:
		return fmt.Sprintf("%s. %s.", issue.Title, issue.Remediation)
	}
}

// BundledPrompt builds one combined remediation plan covering every
// high and critical issue, grouped by type. Issues below high severity
// are left out; an empty bundle returns the empty string.
func (g *PromptGeneratorImpl) BundledPrompt(issues []domain.Issue) string {
	groups := make(map[domain.IssueType][]domain.Issue)
	total := 0
	for _, issue := range issues {
		if !issue.Severity.AtLeast(domain.SeverityHigh) {
			continue
		}
		groups[issue.Type] = append(groups[issue.Type], issue)
		total++
	}
	if total == 0 {
		return ""
	}

	var b strings.Builder
	writeHeading(&b, "Remediation Plan", '=')

	number := 1
	for _, issueType := range bundleTypeOrder() {
		group := groups[issueType]
		if len(group) == 0 {
			continue
		}
		b.WriteString("\n")
		writeHeading(&b, bundleSectionTitle(issueType), '-')
		for _, issue := range group {
			b.WriteString("\n")
			fmt.Fprintf(&b, "%d. Problem: %s.\n", number, issue.Description)
			fmt.Fprintf(&b, "   Fix: %s.\n", issue.Remediation)
			fmt.Fprintf(&b, "   Impact: %s.\n", issue.ImpactSummary)
			number++
		}
	}

	b.WriteString("\n")
	writeHeading(&b, "Implementation Instructions", '-')
	b.WriteString("- Address the sections in the order listed above.\n")
	b.WriteString("- Re-run the scan after each change and confirm the issue clears.\n")
	b.WriteString("- Keep every change scoped to its subject module.\n")

	fmt.Fprintf(&b, "\nEstimated aggregate improvement: %d%% (%d x %d%%).\n",
		total*bundledImpactPercentPerIssue, total, bundledImpactPercentPerIssue)

	return b.String()
}

// bundleTypeOrder fixes the section order of the combined plan,
// structural risk first
func bundleTypeOrder() []domain.IssueType {
	return []domain.IssueType{
		domain.IssueTypeComplexityHotspot,
		domain.IssueTypeLowDensity,
		domain.IssueTypeMissingCoverage,
		domain.IssueTypeRefactorNeeded,
	}
}

func bundleSectionTitle(issueType domain.IssueType) string {
	switch issueType {
	case domain.IssueTypeComplexityHotspot:
		return "Complexity Hotspots"
	case domain.IssueTypeLowDensity:
		return "Low Pattern Density"
	case domain.IssueTypeMissingCoverage:
		return "Missing Coverage"
	case domain.IssueTypeRefactorNeeded:
		return "Structural Refactors"
	default:
		return string(issueType)
	}
}

func writeHeading(b *strings.Builder, title string, underline rune) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(string(underline), len(title)))
	b.WriteString("\n")
}

// Compile-time interface check
var _ domain.PromptGenerator = (*PromptGeneratorImpl)(nil)
