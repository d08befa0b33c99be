package app

import (
	"context"

	"github.com/vitals-dev/vitals/domain"
	servicepkg "github.com/vitals-dev/vitals/service"
)

// HealRunResult holds the outcome of one detect-and-heal pass
type HealRunResult struct {
	// Scan is the scan response the candidates were derived from
	Scan *domain.ScanResponse `json:"scan" yaml:"scan"`

	// Created lists the fix candidates newly tracked by this pass
	Created []domain.FixCandidate `json:"created" yaml:"created"`
}

// HealUseCase orchestrates the self-healing workflow
type HealUseCase struct {
	service     domain.HealService
	scanUseCase *ScanUseCase
}

// NewHealUseCase creates a heal use case with default collaborators
func NewHealUseCase(service domain.HealService) *HealUseCase {
	return &HealUseCase{
		service:     service,
		scanUseCase: NewScanUseCase(),
	}
}

// Run scans the given paths and feeds the detected issues into the
// healing controller. When persistence partially fails the created
// candidates are still returned alongside the error.
func (uc *HealUseCase) Run(ctx context.Context, req domain.ScanRequest) (*HealRunResult, error) {
	// Healing consumes the scan result directly
	req.OutputWriter = nil

	response, err := uc.scanUseCase.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	created, err := uc.service.DetectIssues(ctx, response.Result.Issues)
	result := &HealRunResult{
		Scan:    response,
		Created: created,
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// Apply marks a tracked candidate as manually applied
func (uc *HealUseCase) Apply(ctx context.Context, id string) (*domain.FixCandidate, error) {
	return uc.service.ApplyFix(ctx, id)
}

// Stats projects the tracked candidates into aggregate statistics
func (uc *HealUseCase) Stats(ctx context.Context) (*domain.HealStats, error) {
	return uc.service.FetchStats(ctx)
}

// Toggle flips auto-apply and returns the new state
func (uc *HealUseCase) Toggle() bool {
	return uc.service.ToggleEnabled()
}

// SetThreshold updates the auto-apply confidence threshold
func (uc *HealUseCase) SetThreshold(value float64) error {
	return uc.service.SetAutoApplyThreshold(value)
}

// Config returns a snapshot of the current healing settings
func (uc *HealUseCase) Config() domain.HealConfig {
	return uc.service.Config()
}

// HealUseCaseBuilder provides a builder pattern for creating HealUseCase
type HealUseCaseBuilder struct {
	service     domain.HealService
	scanUseCase *ScanUseCase
}

// NewHealUseCaseBuilder creates a new builder
func NewHealUseCaseBuilder() *HealUseCaseBuilder {
	return &HealUseCaseBuilder{}
}

// WithService sets the heal service
func (b *HealUseCaseBuilder) WithService(service domain.HealService) *HealUseCaseBuilder {
	b.service = service
	return b
}

// WithScanUseCase sets the scan use case driving issue detection
func (b *HealUseCaseBuilder) WithScanUseCase(uc *ScanUseCase) *HealUseCaseBuilder {
	b.scanUseCase = uc
	return b
}

// Build creates the HealUseCase with the configured dependencies
func (b *HealUseCaseBuilder) Build() (*HealUseCase, error) {
	uc := &HealUseCase{
		service:     b.service,
		scanUseCase: b.scanUseCase,
	}

	if uc.service == nil {
		uc.service = servicepkg.NewHealService(domain.DefaultHealConfig())
	}
	if uc.scanUseCase == nil {
		uc.scanUseCase = NewScanUseCase()
	}

	return uc, nil
}
