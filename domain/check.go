package domain

// CheckResult represents the result of a quality gate evaluation
type CheckResult struct {
	Passed      bool             `json:"passed" yaml:"passed"`
	ExitCode    int              `json:"exitCode" yaml:"exitCode"`
	Violations  []CheckViolation `json:"violations" yaml:"violations"`
	Summary     CheckSummary     `json:"summary" yaml:"summary"`
	Duration    int64            `json:"durationMs" yaml:"durationMs"`
	GeneratedAt string           `json:"generatedAt" yaml:"generatedAt"`
	Version     string           `json:"version" yaml:"version"`
}

// CheckViolation represents a single quality gate violation
type CheckViolation struct {
	Category  string `json:"category" yaml:"category"`            // density, complexity, coverage
	Rule      string `json:"rule" yaml:"rule"`                    // min-density, no-critical-hotspots, etc.
	Severity  string `json:"severity" yaml:"severity"`            // error, warning
	Message   string `json:"message" yaml:"message"`              // Human-readable description
	Location  string `json:"location,omitempty" yaml:"location,omitempty"` // Module path if applicable
	Actual    string `json:"actual" yaml:"actual"`                // Actual value
	Threshold string `json:"threshold,omitempty" yaml:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics for a gate run
type CheckSummary struct {
	ModulesScanned    int  `json:"modulesScanned" yaml:"modulesScanned"`
	TotalViolations   int  `json:"totalViolations" yaml:"totalViolations"`
	DensityChecked    bool `json:"densityChecked" yaml:"densityChecked"`
	ComplexityChecked bool `json:"complexityChecked" yaml:"complexityChecked"`
	CoverageChecked   bool `json:"coverageChecked" yaml:"coverageChecked"`
	CriticalModules   int  `json:"criticalModules" yaml:"criticalModules"`
	LowDensityModules int  `json:"lowDensityModules" yaml:"lowDensityModules"`
}
