package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/constants"
)

// Default serve settings
const (
	// DefaultServeHost binds the API server to loopback only
	DefaultServeHost = "127.0.0.1"

	// DefaultServePort is the default API server port
	DefaultServePort = 4477

	// DefaultScanRequestsPerMinute limits how often the API may trigger a scan
	DefaultScanRequestsPerMinute = 6

	// DefaultShutdownTimeoutSeconds bounds graceful server shutdown
	DefaultShutdownTimeoutSeconds = 10
)

// Default logging settings
const (
	// DefaultLogLevel is the minimum level written to the session log
	DefaultLogLevel = "info"
)

// Config is the full on-disk configuration, one section per concern
type Config struct {
	// Scan holds scan pacing and capture configuration
	Scan ScanConfig `json:"scan" mapstructure:"scan" yaml:"scan"`

	// Detection holds issue detection thresholds
	Detection DetectionConfig `json:"detection" mapstructure:"detection" yaml:"detection"`

	// Heal holds self-healing controller configuration
	Heal HealConfig `json:"heal" mapstructure:"heal" yaml:"heal"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Serve holds API server configuration
	Serve ServeConfig `json:"serve,omitempty" mapstructure:"serve" yaml:"serve"`

	// Logging holds structured log configuration
	Logging LoggingConfig `json:"logging,omitempty" mapstructure:"logging" yaml:"logging"`

	// Analysis holds file discovery configuration
	Analysis AnalysisConfig `json:"analysis,omitempty" mapstructure:"analysis" yaml:"analysis"`
}

// ScanConfig holds configuration for scan pacing and module capture
type ScanConfig struct {
	// ContentPreviewLength is how many characters of each module to retain
	ContentPreviewLength int `json:"content_preview_length" mapstructure:"content_preview_length" yaml:"content_preview_length"`

	// ModulePauseMs is the pause between module analyses, keeping scan
	// progress observable. 0 disables pacing.
	ModulePauseMs int `json:"module_pause_ms" mapstructure:"module_pause_ms" yaml:"module_pause_ms"`

	// TickPauseMs is the pause between post-extraction pipeline ticks
	TickPauseMs int `json:"tick_pause_ms" mapstructure:"tick_pause_ms" yaml:"tick_pause_ms"`

	// NoProgress disables the interactive progress bar
	NoProgress bool `json:"no_progress" mapstructure:"no_progress" yaml:"no_progress"`
}

// DetectionConfig holds configuration for issue detection
type DetectionConfig struct {
	// LowDensityThreshold flags modules below this pattern density
	LowDensityThreshold float64 `json:"low_density_threshold" mapstructure:"low_density_threshold" yaml:"low_density_threshold"`

	// SevereDensityThreshold promotes low-density issues to high severity
	SevereDensityThreshold float64 `json:"severe_density_threshold" mapstructure:"severe_density_threshold" yaml:"severe_density_threshold"`

	// LowDensityMinLines is the minimum module size for density issues
	LowDensityMinLines int `json:"low_density_min_lines" mapstructure:"low_density_min_lines" yaml:"low_density_min_lines"`

	// LowDensityCap limits low-density issues per scan
	LowDensityCap int `json:"low_density_cap" mapstructure:"low_density_cap" yaml:"low_density_cap"`

	// HotspotMinLines is the minimum module size for hotspot issues
	HotspotMinLines int `json:"hotspot_min_lines" mapstructure:"hotspot_min_lines" yaml:"hotspot_min_lines"`

	// HotspotCap limits hotspot issues per scan
	HotspotCap int `json:"hotspot_cap" mapstructure:"hotspot_cap" yaml:"hotspot_cap"`

	// CoverageRatio is the minimum core-family fraction of all modules
	CoverageRatio float64 `json:"coverage_ratio" mapstructure:"coverage_ratio" yaml:"coverage_ratio"`

	// HotspotExemptions lists module paths never reported as hotspots
	HotspotExemptions []string `json:"hotspot_exemptions" mapstructure:"hotspot_exemptions" yaml:"hotspot_exemptions"`

	// CoreFamilyMarkers lists extra path substrings counted toward the
	// core family when checking coverage
	CoreFamilyMarkers []string `json:"core_family_markers" mapstructure:"core_family_markers" yaml:"core_family_markers"`
}

// HealConfig holds configuration for the self-healing controller
type HealConfig struct {
	// Enabled controls whether fixes may be auto-applied
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// AutoApplyThreshold is the minimum confidence for auto-apply
	AutoApplyThreshold float64 `json:"auto_apply_threshold" mapstructure:"auto_apply_threshold" yaml:"auto_apply_threshold"`

	// DatabasePath overrides the fix candidate database location
	// (empty = tool default, ".vitals/heal.db" under current working directory)
	DatabasePath string `json:"database_path" mapstructure:"database_path" yaml:"database_path"`
}

// OutputConfig controls how scan reports are rendered
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv, html
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show per-module breakdown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`

	// MinSeverity filters reported issues: empty shows everything
	MinSeverity string `json:"min_severity" mapstructure:"min_severity" yaml:"min_severity"`

	// Directory specifies the output directory for reports
	// (empty = tool default, ".vitals/reports" under current working directory)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`
}

// ServeConfig holds configuration for the API server
type ServeConfig struct {
	// Host is the listen address
	Host string `json:"host" mapstructure:"host" yaml:"host"`

	// Port is the listen port
	Port int `json:"port" mapstructure:"port" yaml:"port"`

	// ScanRequestsPerMinute rate-limits scan-triggering requests
	ScanRequestsPerMinute int `json:"scan_requests_per_minute" mapstructure:"scan_requests_per_minute" yaml:"scan_requests_per_minute"`

	// ShutdownTimeoutSeconds bounds graceful shutdown on SIGINT/SIGTERM
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// LoggingConfig holds configuration for structured logging
type LoggingConfig struct {
	// Directory is where JSONL logs are written
	// (empty = tool default, ".vitals/logs" under current working directory)
	Directory string `json:"directory" mapstructure:"directory" yaml:"directory"`

	// MinLevel is the minimum level written: debug, info, warn, error
	MinLevel string `json:"min_level" mapstructure:"min_level" yaml:"min_level"`
}

// AnalysisConfig governs module file discovery
type AnalysisConfig struct {
	// IncludePatterns selects the module files brought into a scan
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns names directories and globs never scanned
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to scan directories recursively
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`

	// FollowSymlinks enables descending into symlinked directories
	FollowSymlinks bool `json:"follow_symlinks" mapstructure:"follow_symlinks" yaml:"follow_symlinks"`

	// RespectGitignore skips files matched by .gitignore
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			ContentPreviewLength: constants.DefaultContentPreviewLength,
			ModulePauseMs:        constants.DefaultModulePauseMs,
			TickPauseMs:          constants.DefaultTickPauseMs,
			NoProgress:           false,
		},
		Detection: DetectionConfig{
			LowDensityThreshold:    domain.DefaultLowDensityThreshold,
			SevereDensityThreshold: domain.DefaultSevereDensityThreshold,
			LowDensityMinLines:     domain.DefaultLowDensityMinLines,
			LowDensityCap:          domain.DefaultLowDensityCap,
			HotspotMinLines:        domain.DefaultHotspotMinLines,
			HotspotCap:             domain.DefaultHotspotCap,
			CoverageRatio:          domain.DefaultCoverageRatio,
			HotspotExemptions:      []string{},
			CoreFamilyMarkers:      []string{},
		},
		Heal: HealConfig{
			Enabled:            false, // healing is opt-in
			AutoApplyThreshold: domain.DefaultAutoApplyThreshold,
			DatabasePath:       "",
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
			MinSeverity: "",
		},
		Serve: ServeConfig{
			Host:                   DefaultServeHost,
			Port:                   DefaultServePort,
			ScanRequestsPerMinute:  DefaultScanRequestsPerMinute,
			ShutdownTimeoutSeconds: DefaultShutdownTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Directory: "",
			MinLevel:  DefaultLogLevel,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{
				"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx",
				"**/*.mts", "**/*.cts", "**/*.mjs", "**/*.cjs",
			},
			// Dependencies, build and cache output, generated artifacts
			ExcludePatterns: []string{
				"node_modules", "vendor", ".git",
				"dist", "build", "out", ".output",
				".next", ".nuxt", ".vercel",
				".cache", ".turbo", "coverage",
				"*.min.js", "*.min.mjs", "*.min.cjs", "*.bundle.js",
				"*.map",
			},
			Recursive:        true,
			FollowSymlinks:   false,
			RespectGitignore: true,
		},
	}
}

// LoadConfig loads the configuration at configPath, or the defaults
// (with file discovery from the working directory) when the path is empty
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// If no config path is given, one is discovered from the target upward.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile parses one configuration file over the defaults,
// so sections the file leaves out keep their default values
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// A fresh viper per call keeps concurrent loads independent
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// searchConfigInDirectory returns the first candidate file present in dir
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
// targetPath is the path being scanned (a module file or project directory).
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		constants.ConfigFileName,
		"vitals.yaml",
		"vitals.yml",
		".vitals.yml",
		"vitals.json",
		".vitals.json",
	}

	// A target path anchors the search: walk from it toward the root
	if targetPath != "" {
		if abs, err := filepath.Abs(targetPath); err == nil {
			// Module files anchor at their directory
			if info, err := os.Stat(abs); err == nil && !info.IsDir() {
				abs = filepath.Dir(abs)
			}

			// Search from target directory up to the filesystem root.
			// Termination handles Windows volume roots and UNC paths.
			volume := filepath.VolumeName(abs)
			for dir := abs; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	// Without a target, the working directory is the anchor
	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	// Per-user locations: $XDG_CONFIG_HOME, then ~/.config, then ~
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}
		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	// Last resort: an explicit override in the environment
	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate rejects configurations the scan pipeline cannot honor
func (c *Config) Validate() error {
	// Validate scan pacing and capture
	if c.Scan.ContentPreviewLength < 0 {
		return fmt.Errorf("scan.content_preview_length must be >= 0, got %d", c.Scan.ContentPreviewLength)
	}

	if c.Scan.ContentPreviewLength > constants.MaxContentPreviewLength {
		return fmt.Errorf("scan.content_preview_length cannot exceed %d, got %d",
			constants.MaxContentPreviewLength, c.Scan.ContentPreviewLength)
	}

	if c.Scan.ModulePauseMs < 0 {
		return fmt.Errorf("scan.module_pause_ms must be >= 0, got %d", c.Scan.ModulePauseMs)
	}

	if c.Scan.TickPauseMs < 0 {
		return fmt.Errorf("scan.tick_pause_ms must be >= 0, got %d", c.Scan.TickPauseMs)
	}

	// Validate detection thresholds
	if c.Detection.LowDensityThreshold <= 0 || c.Detection.LowDensityThreshold > 1 {
		return fmt.Errorf("detection.low_density_threshold must be in (0, 1], got %g", c.Detection.LowDensityThreshold)
	}

	if c.Detection.SevereDensityThreshold < 0 {
		return fmt.Errorf("detection.severe_density_threshold must be >= 0, got %g", c.Detection.SevereDensityThreshold)
	}

	if c.Detection.SevereDensityThreshold >= c.Detection.LowDensityThreshold {
		return fmt.Errorf("detection.severe_density_threshold (%g) must be < low_density_threshold (%g)",
			c.Detection.SevereDensityThreshold, c.Detection.LowDensityThreshold)
	}

	if c.Detection.LowDensityMinLines < 0 {
		return fmt.Errorf("detection.low_density_min_lines must be >= 0, got %d", c.Detection.LowDensityMinLines)
	}

	if c.Detection.LowDensityCap < 0 {
		return fmt.Errorf("detection.low_density_cap must be >= 0, got %d", c.Detection.LowDensityCap)
	}

	if c.Detection.HotspotMinLines < 0 {
		return fmt.Errorf("detection.hotspot_min_lines must be >= 0, got %d", c.Detection.HotspotMinLines)
	}

	if c.Detection.HotspotCap < 0 {
		return fmt.Errorf("detection.hotspot_cap must be >= 0, got %d", c.Detection.HotspotCap)
	}

	if c.Detection.CoverageRatio <= 0 || c.Detection.CoverageRatio >= 1 {
		return fmt.Errorf("detection.coverage_ratio must be in (0, 1), got %g", c.Detection.CoverageRatio)
	}

	// Validate healing configuration against domain bounds
	if err := c.Heal.ToDomain().Validate(); err != nil {
		return err
	}

	switch c.Output.Format {
	case "text", "json", "yaml", "csv", "html":
	default:
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv, html", c.Output.Format)
	}

	// An empty severity floor reports everything
	switch c.Output.MinSeverity {
	case "", "low", "medium", "high", "critical":
	default:
		return fmt.Errorf("invalid output.min_severity '%s', must be one of: low, medium, high, critical", c.Output.MinSeverity)
	}

	// Validate serve settings
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be in [1, 65535], got %d", c.Serve.Port)
	}

	if c.Serve.ScanRequestsPerMinute < 1 {
		return fmt.Errorf("serve.scan_requests_per_minute must be >= 1, got %d", c.Serve.ScanRequestsPerMinute)
	}

	if c.Serve.ShutdownTimeoutSeconds < 1 {
		return fmt.Errorf("serve.shutdown_timeout_seconds must be >= 1, got %d", c.Serve.ShutdownTimeoutSeconds)
	}

	switch c.Logging.MinLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.min_level '%s', must be one of: debug, info, warn, error", c.Logging.MinLevel)
	}

	// Validate include patterns (at least one must be specified)
	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	return nil
}

// Thresholds converts the detection section into domain thresholds
func (c *DetectionConfig) Thresholds() domain.DetectorThresholds {
	return domain.DetectorThresholds{
		LowDensityThreshold:    c.LowDensityThreshold,
		SevereDensityThreshold: c.SevereDensityThreshold,
		LowDensityMinLines:     c.LowDensityMinLines,
		LowDensityCap:          c.LowDensityCap,
		HotspotMinLines:        c.HotspotMinLines,
		HotspotCap:             c.HotspotCap,
		CoverageRatio:          c.CoverageRatio,
		HotspotExemptions:      c.HotspotExemptions,
		CoreFamilyMarkers:      c.CoreFamilyMarkers,
	}
}

// ToDomain converts the heal section into domain healing settings
func (c *HealConfig) ToDomain() domain.HealConfig {
	return domain.HealConfig{
		Enabled:            c.Enabled,
		AutoApplyThreshold: c.AutoApplyThreshold,
	}
}

// SeverityFloor returns the configured minimum severity for reports
func (c *OutputConfig) SeverityFloor() domain.Severity {
	return domain.Severity(c.MinSeverity)
}

// SaveConfig writes the full configuration to a YAML file. Every
// section is written so a later load round-trips exactly.
func SaveConfig(config *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	sections := map[string]any{
		"scan":      config.Scan,
		"detection": config.Detection,
		"heal":      config.Heal,
		"output":    config.Output,
		"serve":     config.Serve,
		"logging":   config.Logging,
		"analysis":  config.Analysis,
	}
	for name, section := range sections {
		v.Set(name, section)
	}

	return v.WriteConfig()
}
