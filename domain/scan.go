package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the output format for reports
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
	OutputFormatHTML OutputFormat = "html"
)

// Category represents the role a module plays in the scanned codebase
type Category string

const (
	CategoryCore     Category = "core"
	CategoryServices Category = "services"
	CategoryFeatures Category = "features"
	CategoryUI       Category = "ui"
	CategoryUtility  Category = "utility"
	CategoryTypeDefs Category = "typeDefs"
	CategoryHooks    Category = "hooks"
	CategoryStores   Category = "stores"
	CategoryPages    Category = "pages"
)

// AllCategories returns every category in display order
func AllCategories() []Category {
	return []Category{
		CategoryCore,
		CategoryServices,
		CategoryFeatures,
		CategoryHooks,
		CategoryStores,
		CategoryUI,
		CategoryPages,
		CategoryTypeDefs,
		CategoryUtility,
	}
}

// Priority returns the display rank of the category. Lower ranks sort first.
func (c Category) Priority() int {
	switch c {
	case CategoryCore:
		return 0
	case CategoryServices:
		return 1
	case CategoryFeatures:
		return 2
	case CategoryHooks:
		return 3
	case CategoryStores:
		return 4
	case CategoryUI:
		return 5
	case CategoryPages:
		return 6
	case CategoryTypeDefs:
		return 7
	case CategoryUtility:
		return 8
	default:
		return 9
	}
}

// ComplexityLevel represents the banded complexity of a module
type ComplexityLevel string

const (
	ComplexityLow      ComplexityLevel = "low"
	ComplexityMedium   ComplexityLevel = "medium"
	ComplexityHigh     ComplexityLevel = "high"
	ComplexityCritical ComplexityLevel = "critical"
)

// Rank returns the ordering of the level. Higher ranks are more complex.
func (c ComplexityLevel) Rank() int {
	switch c {
	case ComplexityLow:
		return 0
	case ComplexityMedium:
		return 1
	case ComplexityHigh:
		return 2
	case ComplexityCritical:
		return 3
	default:
		return -1
	}
}

// ScanStage represents the lifecycle state of the scan pipeline.
// Stages advance strictly in declaration order; a new scan may only
// start from idle or complete.
type ScanStage string

const (
	ScanStageIdle       ScanStage = "idle"
	ScanStageScanning   ScanStage = "scanning"
	ScanStageExtracting ScanStage = "extracting"
	ScanStageMatching   ScanStage = "matching"
	ScanStagePredicting ScanStage = "predicting"
	ScanStageComplete   ScanStage = "complete"
)

// Window returns the progress band the stage occupies, as percentages
// of the whole scan.
func (s ScanStage) Window() (start, end float64) {
	switch s {
	case ScanStageScanning:
		return 0, 40
	case ScanStageExtracting:
		return 40, 60
	case ScanStageMatching:
		return 60, 80
	case ScanStagePredicting:
		return 80, 100
	case ScanStageComplete:
		return 100, 100
	default:
		return 0, 0
	}
}

// CanStartScan reports whether a new scan may begin from this stage
func (s ScanStage) CanStartScan() bool {
	return s == ScanStageIdle || s == ScanStageComplete
}

// ModuleRecord represents one scanned module and its derived metrics
type ModuleRecord struct {
	Path                  string          `json:"path" yaml:"path"`
	Category              Category        `json:"category" yaml:"category"`
	LinesOfCode           int             `json:"linesOfCode" yaml:"linesOfCode"`
	Complexity            ComplexityLevel `json:"complexity" yaml:"complexity"`
	PatternDensity        float64         `json:"patternDensity" yaml:"patternDensity"`
	Description           string          `json:"description" yaml:"description"`
	ContentPreview        string          `json:"contentPreview,omitempty" yaml:"contentPreview,omitempty"`
	HasSupersedingModules bool            `json:"hasSupersedingModules" yaml:"hasSupersedingModules"`
}

// ScanResult represents one completed scan. Results are immutable:
// a re-scan produces a new result and never mutates a published one.
type ScanResult struct {
	Modules                 []ModuleRecord       `json:"modules" yaml:"modules"`
	CategoryProfile         map[Category]float64 `json:"categoryProfile" yaml:"categoryProfile"`
	AggregatePatternDensity float64              `json:"aggregatePatternDensity" yaml:"aggregatePatternDensity"`
	Archetype               string               `json:"archetype" yaml:"archetype"`
	Fingerprint             string               `json:"fingerprint" yaml:"fingerprint"`
	Issues                  []Issue              `json:"issues" yaml:"issues"`
	ScannedAt               string               `json:"scannedAt" yaml:"scannedAt"`
}

// Prediction represents the signature derived for a completed scan
type Prediction struct {
	Archetype   string  `json:"archetype" yaml:"archetype"`
	Fingerprint string  `json:"fingerprint" yaml:"fingerprint"`
	Confidence  float64 `json:"confidence" yaml:"confidence"`
}

// ScanRequest represents a request to scan a codebase
type ScanRequest struct {
	// Input files or directories to scan
	Paths     []string `json:"paths" yaml:"paths"`
	Recursive bool     `json:"recursive" yaml:"recursive"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format" yaml:"output_format"`
	OutputWriter io.Writer    `json:"-" yaml:"-"`
	ShowDetails  bool         `json:"show_details" yaml:"show_details"`
	NoProgress   bool         `json:"no_progress" yaml:"no_progress"`

	// Scan behavior
	FreshAnalysis        bool `json:"fresh_analysis" yaml:"fresh_analysis"`
	ContentPreviewLength int  `json:"content_preview_length" yaml:"content_preview_length"`

	// Filtering
	IncludePatterns []string `json:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns" yaml:"exclude_patterns"`
	MinSeverity     Severity `json:"min_severity" yaml:"min_severity"`

	// Issue detection thresholds
	Thresholds DetectorThresholds `json:"thresholds" yaml:"thresholds"`

	// Configuration
	ConfigPath string `json:"config_path" yaml:"config_path"`
}

// ScanSummary represents aggregate statistics for a scan
type ScanSummary struct {
	TotalModules   int     `json:"totalModules" yaml:"totalModules"`
	TotalLines     int     `json:"totalLines" yaml:"totalLines"`
	AverageDensity float64 `json:"averageDensity" yaml:"averageDensity"`
	IssuesFound    int     `json:"issuesFound" yaml:"issuesFound"`
	ModulesSkipped int     `json:"modulesSkipped" yaml:"modulesSkipped"`
}

// ScanResponse represents the response from a scan
type ScanResponse struct {
	Result      *ScanResult            `json:"result" yaml:"result"`
	Summary     ScanSummary            `json:"summary" yaml:"summary"`
	Warnings    []string               `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors      []string               `json:"errors,omitempty" yaml:"errors,omitempty"`
	GeneratedAt string                 `json:"generatedAt" yaml:"generatedAt"`
	Version     string                 `json:"version" yaml:"version"`
	Config      map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// ProgressEvent represents one observable step of a running scan
type ProgressEvent struct {
	Stage   ScanStage
	Percent float64
}

// ProgressSink receives progress events from a running scan
type ProgressSink func(ProgressEvent)

// ScanService defines the contract for the scan pipeline
type ScanService interface {
	// Scan runs the full pipeline and returns the completed result
	Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error)
	// Stage reports the pipeline state at the time of the call
	Stage() ScanStage
	// LatestResult returns the most recent completed result, or nil
	// when no scan has finished yet
	LatestResult() *ScanResult
}

// ModuleSourceProvider enumerates scannable modules and fetches their
// content on demand. Content is fetched lazily, one module at a time.
type ModuleSourceProvider interface {
	// Paths returns candidate module paths in a stable order
	Paths() []string
	// Fetch loads the content of a single module
	Fetch(ctx context.Context, path string) (string, error)
}

// SignaturePredictor derives the archetype and fingerprint for a scan
type SignaturePredictor interface {
	Predict(profile map[Category]float64, version int, scannedAt time.Time) Prediction
}

// ScanVersioner issues monotonically increasing fingerprint versions.
// Implementations must be safe for concurrent use.
type ScanVersioner interface {
	// Next advances the version counter and returns the new value
	Next() int
	// Current returns the version without advancing it
	Current() int
	// Invalidate discards accumulated history so the next scan starts fresh
	Invalidate()
}

// StageTimer paces scan stages. Interactive runs use real delays so
// progress stays visible; batch runs and tests use a zero timer.
type StageTimer interface {
	// PauseAfterModule sleeps between per-module steps while scanning
	PauseAfterModule(ctx context.Context) error
	// PauseAfterTick sleeps between synthetic ticks in later stages
	PauseAfterTick(ctx context.Context) error
}

// OutputFormatter handles formatting of scan responses
type OutputFormatter interface {
	// Write formats and writes the response to the writer
	Write(response *ScanResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader handles loading scan configuration from files
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified file
	LoadConfig(path string) (*ScanRequest, error)
	// LoadDefaultConfig returns the default configuration
	LoadDefaultConfig() *ScanRequest
	// MergeConfig merges a loaded configuration with request overrides
	MergeConfig(base *ScanRequest, override *ScanRequest) *ScanRequest
}
