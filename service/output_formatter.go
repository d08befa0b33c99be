package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/vitals-dev/vitals/domain"
)

// OutputFormatterImpl renders scan results and healing stats in every
// supported output format
type OutputFormatterImpl struct{}

// NewOutputFormatter returns the default formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as indented JSON
func WriteJSON(writer io.Writer, data interface{}) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteYAML writes data as YAML
func WriteYAML(writer io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Severity and complexity colors. fatih/color disables itself on
// non-terminal writers, so piped output stays plain.
var severityColors = map[domain.Severity]*color.Color{
	domain.SeverityCritical: color.New(color.FgRed, color.Bold),
	domain.SeverityHigh:     color.New(color.FgRed),
	domain.SeverityMedium:   color.New(color.FgYellow),
	domain.SeverityLow:      color.New(color.FgCyan),
}

var complexityColors = map[domain.ComplexityLevel]*color.Color{
	domain.ComplexityCritical: color.New(color.FgRed, color.Bold),
	domain.ComplexityHigh:     color.New(color.FgYellow),
}

func severityTag(severity domain.Severity) string {
	label := "[" + strings.ToUpper(string(severity)) + "]"
	if c, ok := severityColors[severity]; ok {
		return c.Sprint(label)
	}
	return label
}

func complexityTag(level domain.ComplexityLevel) string {
	if c, ok := complexityColors[level]; ok {
		return c.Sprintf(" [%s]", strings.ToUpper(string(level)))
	}
	return ""
}

// Write writes the scan response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.ScanResponse, format domain.OutputFormat, writer io.Writer) error {
	if response == nil || response.Result == nil {
		return domain.NewOutputError("no scan result to write", nil)
	}

	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeScanCSV(response, writer)
	case domain.OutputFormatHTML:
		return f.writeScanHTML(response, writer)
	case domain.OutputFormatText:
		return f.writeScanText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// WriteHealStats writes the healing statistics in the specified format
func (f *OutputFormatterImpl) WriteHealStats(stats *domain.HealStats, format domain.OutputFormat, writer io.Writer) error {
	if stats == nil {
		return domain.NewOutputError("no healing stats to write", nil)
	}

	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, stats)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, stats)
	case domain.OutputFormatText:
		return f.writeHealStatsText(stats, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeScanText writes the scan response as plain text
func (f *OutputFormatterImpl) writeScanText(response *domain.ScanResponse, writer io.Writer) error {
	result := response.Result
	showDetails := false
	if v, ok := response.Config["show_details"].(bool); ok {
		showDetails = v
	}

	fmt.Fprintf(writer, "\n=== Codebase Vitals ===\n\n")
	fmt.Fprintf(writer, "Generated: %s (vitals %s)\n\n", response.GeneratedAt, response.Version)

	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Modules scanned: %d\n", response.Summary.TotalModules)
	fmt.Fprintf(writer, "  Total lines: %d\n", response.Summary.TotalLines)
	fmt.Fprintf(writer, "  Average density: %.2f\n", response.Summary.AverageDensity)
	fmt.Fprintf(writer, "  Issues found: %d\n", response.Summary.IssuesFound)
	if response.Summary.ModulesSkipped > 0 {
		fmt.Fprintf(writer, "  Modules skipped: %d\n", response.Summary.ModulesSkipped)
	}
	fmt.Fprintln(writer)

	fmt.Fprintf(writer, "Signature:\n")
	fmt.Fprintf(writer, "  Archetype: %s\n", result.Archetype)
	fmt.Fprintf(writer, "  Fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintf(writer, "  Scanned: %s\n", result.ScannedAt)
	fmt.Fprintln(writer)

	// Category profile, display order, absent categories skipped
	fmt.Fprintf(writer, "Category Profile:\n")
	for _, category := range domain.AllCategories() {
		share := result.CategoryProfile[category]
		if share == 0 {
			continue
		}
		fmt.Fprintf(writer, "  %s: %.1f%%\n", category, share*100)
	}
	fmt.Fprintln(writer)

	if len(result.Issues) > 0 {
		fmt.Fprintf(writer, "Issues:\n")
		for _, issue := range result.Issues {
			subject := issue.SubjectPath
			if subject == "" {
				subject = "codebase"
			}
			fmt.Fprintf(writer, "  %s %s: %s\n", severityTag(issue.Severity), issue.Title, subject)
			fmt.Fprintf(writer, "    %s\n", issue.Description)
			fmt.Fprintf(writer, "    Fix: %s\n", issue.Remediation)
		}
	} else {
		fmt.Fprintf(writer, "No issues detected.\n")
	}

	// Module details
	if len(result.Modules) > 0 {
		fmt.Fprintf(writer, "\nModules:\n")
		for _, m := range result.Modules {
			fmt.Fprintf(writer, "  %s [%s] %d lines, density %.2f%s\n",
				m.Path, m.Category, m.LinesOfCode, m.PatternDensity, complexityTag(m.Complexity))
			if showDetails {
				fmt.Fprintf(writer, "    %s\n", m.Description)
				if m.HasSupersedingModules {
					fmt.Fprintf(writer, "    Superseded by a modularized directory\n")
				}
			}
		}
	}

	writeNoteList(writer, "Warnings", response.Warnings)
	writeNoteList(writer, "Errors", response.Errors)

	return nil
}

func writeNoteList(writer io.Writer, heading string, notes []string) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintf(writer, "\n%s:\n", heading)
	for _, note := range notes {
		fmt.Fprintf(writer, "  - %s\n", note)
	}
}

// writeScanCSV writes the module table as CSV
func (f *OutputFormatterImpl) writeScanCSV(response *domain.ScanResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{"path", "category", "lines_of_code", "complexity", "pattern_density", "has_superseding_modules"}
	if err := w.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}

	for _, m := range response.Result.Modules {
		row := []string{
			m.Path,
			string(m.Category),
			strconv.Itoa(m.LinesOfCode),
			string(m.Complexity),
			strconv.FormatFloat(m.PatternDensity, 'f', 2, 64),
			strconv.FormatBool(m.HasSupersedingModules),
		}
		if err := w.Write(row); err != nil {
			return domain.NewOutputError("failed to write CSV row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV output", err)
	}
	return nil
}

// writeHealStatsText writes healing statistics as plain text
func (f *OutputFormatterImpl) writeHealStatsText(stats *domain.HealStats, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Healing Status ===\n\n")

	state := "disabled"
	if stats.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(writer, "Auto-apply: %s (threshold %.2f)\n", state, stats.AutoApplyThreshold)
	fmt.Fprintf(writer, "Generated: %s\n\n", stats.GeneratedAt)

	fmt.Fprintf(writer, "Candidates:\n")
	fmt.Fprintf(writer, "  Total: %d\n", stats.Total)
	fmt.Fprintf(writer, "  Pending: %d\n", stats.Pending)
	fmt.Fprintf(writer, "  Applied: %d\n", stats.Applied)
	fmt.Fprintf(writer, "  Rejected: %d\n", stats.Rejected)
	fmt.Fprintf(writer, "  Critical outstanding: %d\n", stats.CriticalOutstanding)
	fmt.Fprintf(writer, "  High confidence: %d\n", stats.HighConfidence)

	if stats.CriticalOutstanding > 0 {
		fmt.Fprintf(writer, "\n%s %d critical issue(s) awaiting a fix\n",
			severityTag(domain.SeverityCritical), stats.CriticalOutstanding)
	}

	return nil
}

// Compile-time interface check
var _ domain.OutputFormatter = (*OutputFormatterImpl)(nil)
