package service

import (
	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/config"
)

// ConfigurationLoaderImpl bridges the on-disk config format to scan
// requests and applies command-line overrides on top
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader returns the default loader
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig builds a scan request from the named config file
func (cl *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.ScanRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("load scan configuration", err)
	}

	req := cl.convertToScanRequest(cfg)
	req.ConfigPath = path
	return req, nil
}

// LoadDefaultConfig loads the default configuration, discovering a config
// file from the current directory upward when one exists
func (cl *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.ScanRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err != nil {
		// A broken discovered file must not block the scan
		cfg = config.DefaultConfig()
	}
	return cl.convertToScanRequest(cfg)
}

// MergeConfig merges a file-based configuration with command-line overrides.
// Only fields explicitly set on the override replace the base values.
func (cl *ConfigurationLoaderImpl) MergeConfig(base *domain.ScanRequest, override *domain.ScanRequest) *domain.ScanRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base

	// Paths always come from command-line arguments
	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ShowDetails {
		merged.ShowDetails = true
	}
	if override.NoProgress {
		merged.NoProgress = true
	}
	if override.Recursive {
		merged.Recursive = true
	}
	if override.FreshAnalysis {
		merged.FreshAnalysis = true
	}
	if override.ContentPreviewLength > 0 {
		merged.ContentPreviewLength = override.ContentPreviewLength
	}
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}
	if override.MinSeverity != "" {
		merged.MinSeverity = override.MinSeverity
	}
	if override.Thresholds.LowDensityThreshold > 0 {
		merged.Thresholds = override.Thresholds
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// convertToScanRequest converts a file configuration to a scan request.
// Paths and the output writer are supplied by the caller.
func (cl *ConfigurationLoaderImpl) convertToScanRequest(cfg *config.Config) *domain.ScanRequest {
	return &domain.ScanRequest{
		Paths:                []string{},
		Recursive:            cfg.Analysis.Recursive,
		OutputFormat:         domain.OutputFormat(cfg.Output.Format),
		ShowDetails:          cfg.Output.ShowDetails,
		NoProgress:           cfg.Scan.NoProgress,
		ContentPreviewLength: cfg.Scan.ContentPreviewLength,
		IncludePatterns:      cfg.Analysis.IncludePatterns,
		ExcludePatterns:      cfg.Analysis.ExcludePatterns,
		MinSeverity:          cfg.Output.SeverityFloor(),
		Thresholds:           cfg.Detection.Thresholds(),
	}
}

// Compile-time interface check
var _ domain.ConfigurationLoader = (*ConfigurationLoaderImpl)(nil)
