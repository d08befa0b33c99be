package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/app"
	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/config"
	"github.com/vitals-dev/vitals/internal/version"
	"github.com/vitals-dev/vitals/service"
)

// CheckExitError carries the process exit code a finished gate run
// should produce. Code 1 means violations, code 2 means the scan
// itself failed.
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkMinDensity       float64
	checkMaxHotspots      int
	checkFailOn           string
	checkAllowLowDensity  bool
	checkAllowLowCoverage bool
	checkSelectGates      []string
	checkVerbose          bool
	checkJSON             bool
	checkConfigPath       string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast quality gate for CI/CD pipelines",
		Long: `Run a batch scan and evaluate the result against quality thresholds.

Exits 0 when every gate passes, 1 when a threshold is violated, and
2 when the scan itself fails (bad path, broken config).

Examples:
  # Basic gate with defaults
  vitals check src/

  # Require an aggregate pattern density of at least 0.40
  vitals check --min-density 0.40 src/

  # Tolerate two complexity hotspots
  vitals check --max-hotspots 2 src/

  # Fail on medium severity issues as well
  vitals check --fail-on medium src/

  # Machine-readable result
  vitals check --json src/

  # Select specific gates
  vitals check --select density,coverage src/`,
		RunE: runCheck,

		// The gate formats its own output, including errors
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Float64Var(&checkMinDensity, "min-density", 0,
		"Minimum aggregate pattern density (0 = disabled)")
	cmd.Flags().IntVar(&checkMaxHotspots, "max-hotspots", 0,
		"Maximum allowed complexity hotspots (0 = none allowed)")
	cmd.Flags().StringVar(&checkFailOn, "fail-on", "high",
		"Severity that fails the gate: low, medium, high, critical")
	cmd.Flags().BoolVar(&checkAllowLowDensity, "allow-low-density", false,
		"Report low-density modules without failing")
	cmd.Flags().BoolVar(&checkAllowLowCoverage, "allow-low-coverage", false,
		"Report coverage issues without failing")
	cmd.Flags().StringSliceVarP(&checkSelectGates, "select", "s",
		[]string{"density", "complexity", "coverage"},
		"Gates to run: density,complexity,coverage")
	cmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Show per-violation locations and the gate summary")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "at least one path is required"}
	}

	failOn := domain.Severity(checkFailOn)
	if failOn.Rank() < 0 {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("unknown severity: %s", checkFailOn)}
	}

	startTime := time.Now()

	// Config discovery walks upward from the checked path
	cfg, err := config.LoadConfigWithTarget(checkConfigPath, args[0])
	if err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("load configuration: %v", err)}
	}

	// Batch scan: no pacing, no progress, no output writer
	req := domain.ScanRequest{
		Paths:                args,
		Recursive:            cfg.Analysis.Recursive,
		NoProgress:           true,
		ContentPreviewLength: cfg.Scan.ContentPreviewLength,
		IncludePatterns:      cfg.Analysis.IncludePatterns,
		ExcludePatterns:      cfg.Analysis.ExcludePatterns,
		Thresholds:           cfg.Detection.Thresholds(),
	}

	provider := app.NewModuleProvider()
	scanService := service.NewScanService(provider).
		WithStageTimer(service.NewImmediateStageTimer())

	fileHelper := app.NewFileHelper().WithGitignore(cfg.Analysis.RespectGitignore)
	uc, err := app.NewScanUseCaseBuilder().
		WithProvider(provider).
		WithService(scanService).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	response, err := uc.Execute(context.Background(), req)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}
	scan := response.Result

	// Violations starts non-nil so the JSON output renders [] rather than null
	result := &domain.CheckResult{
		Passed:     true,
		Violations: []domain.CheckViolation{},
		Summary:    domain.CheckSummary{ModulesScanned: len(scan.Modules)},
	}

	// Selected gates run in a fixed order, once each
	if slices.Contains(checkSelectGates, "density") {
		checkDensity(scan, failOn, result)
	}
	if slices.Contains(checkSelectGates, "complexity") {
		checkComplexity(scan, failOn, result)
	}
	if slices.Contains(checkSelectGates, "coverage") {
		checkCoverage(scan, failOn, result)
	}

	return outputCheckResult(result, startTime)
}

// checkDensity gates on the aggregate pattern density floor and on
// low-density module issues at or above the failing severity
func checkDensity(scan *domain.ScanResult, failOn domain.Severity, result *domain.CheckResult) {
	result.Summary.DensityChecked = true

	if checkMinDensity > 0 && scan.AggregatePatternDensity < checkMinDensity {
		result.Passed = false
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category:  "density",
			Rule:      "min-density",
			Severity:  "error",
			Message:   fmt.Sprintf("Aggregate pattern density %.2f is below the minimum %.2f", scan.AggregatePatternDensity, checkMinDensity),
			Actual:    fmt.Sprintf("%.2f", scan.AggregatePatternDensity),
			Threshold: fmt.Sprintf("%.2f", checkMinDensity),
		})
	}

	for _, issue := range scan.Issues {
		if issue.Type != domain.IssueTypeLowDensity {
			continue
		}
		result.Summary.LowDensityModules++

		severity := "warning"
		if !checkAllowLowDensity && issue.Severity.AtLeast(failOn) {
			severity = "error"
			result.Passed = false
		}
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category: "density",
			Rule:     "no-low-density-modules",
			Severity: severity,
			Message:  issue.Title,
			Location: issue.SubjectPath,
			Actual:   fmt.Sprintf("%.2f", issue.Metric),
		})
	}
}

// checkComplexity gates on the hotspot count. Individual hotspot
// violations carry severity labels; the count decides pass or fail.
func checkComplexity(scan *domain.ScanResult, failOn domain.Severity, result *domain.CheckResult) {
	result.Summary.ComplexityChecked = true

	for _, m := range scan.Modules {
		if m.Complexity == domain.ComplexityCritical {
			result.Summary.CriticalModules++
		}
	}

	hotspots := 0
	for _, issue := range scan.Issues {
		if issue.Type != domain.IssueTypeComplexityHotspot {
			continue
		}
		hotspots++

		severity := "warning"
		if issue.Severity.AtLeast(failOn) {
			severity = "error"
		}
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category: "complexity",
			Rule:     "no-complexity-hotspots",
			Severity: severity,
			Message:  issue.Title,
			Location: issue.SubjectPath,
			Actual:   fmt.Sprintf("%.0f", issue.Metric),
		})
	}

	if hotspots > checkMaxHotspots {
		result.Passed = false
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category:  "complexity",
			Rule:      "max-hotspots",
			Severity:  "error",
			Message:   fmt.Sprintf("Found %d complexity hotspots (max: %d)", hotspots, checkMaxHotspots),
			Actual:    strconv.Itoa(hotspots),
			Threshold: strconv.Itoa(checkMaxHotspots),
		})
	}
}

// checkCoverage gates on core-family coverage and restructure issues
func checkCoverage(scan *domain.ScanResult, failOn domain.Severity, result *domain.CheckResult) {
	result.Summary.CoverageChecked = true

	for _, issue := range scan.Issues {
		if issue.Type != domain.IssueTypeMissingCoverage && issue.Type != domain.IssueTypeRefactorNeeded {
			continue
		}

		severity := "warning"
		if !checkAllowLowCoverage && issue.Severity.AtLeast(failOn) {
			severity = "error"
			result.Passed = false
		}
		result.Violations = append(result.Violations, domain.CheckViolation{
			Category: "coverage",
			Rule:     "core-family-coverage",
			Severity: severity,
			Message:  issue.Title,
			Location: issue.SubjectPath,
			Actual:   fmt.Sprintf("%.2f", issue.Metric),
		})
	}
}

func outputCheckResult(result *domain.CheckResult, startTime time.Time) error {
	result.Duration = time.Since(startTime).Milliseconds()
	result.GeneratedAt = time.Now().Format(time.RFC3339)
	result.Version = version.GetVersion()
	result.Summary.TotalViolations = len(result.Violations)
	if !result.Passed {
		result.ExitCode = 1
	}

	if checkJSON {
		return outputCheckJSON(result)
	}
	return outputCheckText(result)
}

func outputCheckText(result *domain.CheckResult) error {
	if result.Passed {
		fmt.Println("PASS: every selected gate passed")
		if checkVerbose {
			fmt.Printf("  Modules scanned: %d\n", result.Summary.ModulesScanned)
			fmt.Printf("  Completed in %dms\n", result.Duration)
			if result.Summary.DensityChecked {
				fmt.Printf("  Density: checked\n")
			}
			if result.Summary.ComplexityChecked {
				fmt.Printf("  Complexity: checked (max hotspots: %d)\n", checkMaxHotspots)
			}
			if result.Summary.CoverageChecked {
				fmt.Printf("  Coverage: checked\n")
			}
		}
		return nil
	}

	fmt.Printf("FAIL: %d violation(s)\n", result.Summary.TotalViolations)

	for _, v := range result.Violations {
		tag := "ERROR"
		if v.Severity == "warning" {
			tag = "WARN"
		}
		fmt.Printf("  [%s] %s: %s\n", tag, v.Category, v.Message)
		if checkVerbose && v.Location != "" {
			fmt.Printf("        %s\n", v.Location)
		}
	}

	if checkVerbose {
		fmt.Printf("\nSummary:\n")
		fmt.Printf("  Modules: %d\n", result.Summary.ModulesScanned)
		if result.Summary.DensityChecked {
			fmt.Printf("  Low density modules: %d\n", result.Summary.LowDensityModules)
		}
		if result.Summary.ComplexityChecked {
			fmt.Printf("  Critical complexity modules: %d\n", result.Summary.CriticalModules)
		}
		fmt.Printf("  Completed in %dms\n", result.Duration)
	}

	return &CheckExitError{Code: 1, Message: ""}
}

func outputCheckJSON(result *domain.CheckResult) error {
	if err := service.WriteJSON(os.Stdout, result); err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("encode JSON: %v", err)}
	}

	if !result.Passed {
		return &CheckExitError{Code: 1, Message: ""}
	}
	return nil
}
