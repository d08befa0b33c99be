package app

import (
	"context"
	"fmt"

	"github.com/vitals-dev/vitals/domain"
	servicepkg "github.com/vitals-dev/vitals/service"
)

// ScanUseCase orchestrates the codebase scan workflow
type ScanUseCase struct {
	service    domain.ScanService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
	provider   *ModuleProvider
}

// NewScanUseCase creates a scan use case with default collaborators
func NewScanUseCase() *ScanUseCase {
	provider := NewModuleProvider()
	return &ScanUseCase{
		service:    servicepkg.NewScanService(provider),
		formatter:  servicepkg.NewOutputFormatter(),
		fileHelper: NewFileHelper(),
		provider:   provider,
	}
}

// Execute performs the complete scan workflow: module discovery, the
// scan pipeline, and output rendering when a writer is configured
func (uc *ScanUseCase) Execute(ctx context.Context, req domain.ScanRequest) (*domain.ScanResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("bad scan request", err)
	}

	files, err := ResolveModulePaths(uc.fileHelper, req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, domain.NewFileNotFoundError("failed to collect modules", err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no JavaScript/TypeScript modules found in the specified paths", nil)
	}

	if uc.provider != nil {
		uc.provider.SetFiles(files)
	}

	response, err := uc.service.Scan(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OutputWriter != nil {
		format := req.OutputFormat
		if format == "" {
			format = domain.OutputFormatText
		}
		if req.ShowDetails {
			if response.Config == nil {
				response.Config = map[string]interface{}{}
			}
			response.Config["show_details"] = true
		}
		if err := uc.formatter.Write(response, format, req.OutputWriter); err != nil {
			return nil, err
		}
	}

	return response, nil
}

// validateRequest catches malformed requests before any filesystem work
func (uc *ScanUseCase) validateRequest(req domain.ScanRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("at least one input path is required")
	}

	if req.ContentPreviewLength < 0 {
		return fmt.Errorf("content preview length cannot be negative")
	}

	if req.MinSeverity != "" && req.MinSeverity.Rank() < 0 {
		return fmt.Errorf("unknown severity floor: %s", req.MinSeverity)
	}

	if req.Thresholds.LowDensityThreshold < 0 || req.Thresholds.LowDensityThreshold > 1 {
		return fmt.Errorf("low density threshold must be between 0.0 and 1.0")
	}

	if req.Thresholds.SevereDensityThreshold > req.Thresholds.LowDensityThreshold {
		return fmt.Errorf("severe density threshold cannot exceed the low density threshold")
	}

	return nil
}

// ScanUseCaseBuilder assembles a ScanUseCase, substituting defaults for
// any collaborator the caller leaves unset
type ScanUseCaseBuilder struct {
	service    domain.ScanService
	formatter  domain.OutputFormatter
	fileHelper *FileHelper
	provider   *ModuleProvider
}

// NewScanUseCaseBuilder starts an empty builder
func NewScanUseCaseBuilder() *ScanUseCaseBuilder {
	return &ScanUseCaseBuilder{}
}

// WithService overrides the scan service
func (b *ScanUseCaseBuilder) WithService(service domain.ScanService) *ScanUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter overrides the output formatter
func (b *ScanUseCaseBuilder) WithFormatter(formatter domain.OutputFormatter) *ScanUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithFileHelper overrides filesystem discovery
func (b *ScanUseCaseBuilder) WithFileHelper(fileHelper *FileHelper) *ScanUseCaseBuilder {
	b.fileHelper = fileHelper
	return b
}

// WithProvider overrides the module provider the scan service reads from
func (b *ScanUseCaseBuilder) WithProvider(provider *ModuleProvider) *ScanUseCaseBuilder {
	b.provider = provider
	return b
}

// Build resolves defaults and returns the finished use case
func (b *ScanUseCaseBuilder) Build() (*ScanUseCase, error) {
	uc := &ScanUseCase{
		service:    b.service,
		formatter:  b.formatter,
		fileHelper: b.fileHelper,
		provider:   b.provider,
	}

	if uc.provider == nil {
		uc.provider = NewModuleProvider()
	}
	if uc.service == nil {
		uc.service = servicepkg.NewScanService(uc.provider)
	}
	if uc.formatter == nil {
		uc.formatter = servicepkg.NewOutputFormatter()
	}
	if uc.fileHelper == nil {
		uc.fileHelper = NewFileHelper()
	}

	return uc, nil
}
